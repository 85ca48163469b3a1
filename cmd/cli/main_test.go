package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/task-tracker/internal/rest"
)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &Client{address: srv.URL, http: srv.Client()}
}

func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("OK", func(t *testing.T) {
		t.Parallel()

		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/statistics", r.URL.Path)

			_, _ = w.Write([]byte(`{"total":3,"pendientes":1,"en_progreso":1,"completadas":1}`))
		})

		var stats rest.StatisticsResponse

		require.NoError(t, client.Do(context.Background(), http.MethodGet, "/statistics", nil, &stats))
		assert.Equal(t, rest.StatisticsResponse{Total: 3, Pending: 1, InProgress: 1, Completed: 1}, stats)
	})

	t.Run("ERR: validations", func(t *testing.T) {
		t.Parallel()

		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"create failed","validations":{"titulo":"must not be blank"}}`))
		})

		err := client.Do(context.Background(), http.MethodPost, "/tasks", rest.CreateTasksRequest{}, &rest.Task{})
		require.Error(t, err)

		var errResp *ErrorResponse

		require.True(t, errors.As(err, &errResp))
		assert.Equal(t, http.StatusBadRequest, errResp.Status)
		assert.Equal(t, "create failed", errResp.Message)
		assert.Equal(t, map[string]string{"titulo": "must not be blank"}, errResp.Validations)
		assert.Equal(t, "POST /tasks: 400 create failed, titulo: must not be blank", err.Error())
	})

	t.Run("ERR: invalid error body", func(t *testing.T) {
		t.Parallel()

		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`oops`))
		})

		err := client.Do(context.Background(), http.MethodGet, "/tasks/1", nil, &rest.Task{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "json.Decode")
	})
}
