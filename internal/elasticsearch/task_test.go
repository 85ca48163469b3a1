package elasticsearch_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	esv7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/task-tracker/internal"
	"github.com/sanLimbu/task-tracker/internal/elasticsearch"
)

type request struct {
	method string
	path   string
	body   map[string]interface{}
}

type fakeServer struct {
	mu       sync.Mutex
	requests []request
	status   int
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/" {
		_, _ = w.Write([]byte(`{"version":{"number":"7.17.10","build_flavor":"default"},"tagline":"You Know, for Search"}`))
		return
	}

	req := request{method: r.Method, path: r.URL.Path}
	_ = json.NewDecoder(r.Body).Decode(&req.body)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	status := f.status
	f.mu.Unlock()

	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{}`))
}

func (f *fakeServer) recorded() []request {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]request(nil), f.requests...)
}

func newTask(t *testing.T, status int) (*fakeServer, *elasticsearch.Task) {
	t.Helper()

	fake := &fakeServer{status: status}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := esv7.NewClient(esv7.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return fake, elasticsearch.NewTask(client)
}

func TestTask_Index(t *testing.T) {
	t.Parallel()

	fake, repo := newTask(t, http.StatusCreated)

	due := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	task := internal.Task{
		ID:        3,
		Title:     "Pay rent",
		Status:    internal.StatusPending,
		CreatedAt: time.Now(),
		Variant:   internal.Deadline{DueAt: &due},
	}

	require.NoError(t, repo.Index(context.Background(), internal.NewTaskRecord(task, time.Now())))

	require.Len(t, fake.recorded(), 1)
	assert.Equal(t, http.MethodPut, fake.recorded()[0].method)
	assert.Equal(t, "/tasks/_doc/3", fake.recorded()[0].path)
	assert.Equal(t, "Pay rent", fake.recorded()[0].body["title"])
	assert.Equal(t, "TareaConFecha", fake.recorded()[0].body["kind"])
	assert.EqualValues(t, due.UnixNano(), fake.recorded()[0].body["due_at"])
}

func TestTask_Delete(t *testing.T) {
	t.Parallel()

	t.Run("OK", func(t *testing.T) {
		t.Parallel()

		fake, repo := newTask(t, http.StatusOK)

		require.NoError(t, repo.Delete(context.Background(), 7))
		require.Len(t, fake.recorded(), 1)
		assert.Equal(t, http.MethodDelete, fake.recorded()[0].method)
		assert.Equal(t, "/tasks/_doc/7", fake.recorded()[0].path)
	})

	t.Run("ERR: not found", func(t *testing.T) {
		t.Parallel()

		_, repo := newTask(t, http.StatusNotFound)

		err := repo.Delete(context.Background(), 7)

		var ierr *internal.Error
		require.True(t, errors.As(err, &ierr))
		assert.Equal(t, internal.ErrorCodeNotFound, ierr.Code())
	})

	t.Run("ERR: server error", func(t *testing.T) {
		t.Parallel()

		_, repo := newTask(t, http.StatusInternalServerError)

		assert.Error(t, repo.Delete(context.Background(), 7))
	})
}

func TestTask_Apply(t *testing.T) {
	t.Parallel()

	record := internal.NewTaskRecord(internal.Task{
		ID:        4,
		Title:     "Fix bug",
		Status:    internal.StatusInProgress,
		CreatedAt: time.Now(),
		Variant:   internal.Prioritized{Priority: internal.PriorityHigh},
	}, time.Now())

	t.Run("OK: created", func(t *testing.T) {
		t.Parallel()

		fake, repo := newTask(t, http.StatusCreated)

		require.NoError(t, repo.Apply(context.Background(), internal.TaskEvent{Type: internal.EventTaskCreated, ID: 4, Task: &record}))
		require.Len(t, fake.recorded(), 1)
		assert.Equal(t, http.MethodPut, fake.recorded()[0].method)
		assert.Equal(t, "alta", fake.recorded()[0].body["priority"])
	})

	t.Run("OK: deleted and missing", func(t *testing.T) {
		t.Parallel()

		_, repo := newTask(t, http.StatusNotFound)

		assert.NoError(t, repo.Apply(context.Background(), internal.TaskEvent{Type: internal.EventTaskDeleted, ID: 4}))
	})

	t.Run("ERR: updated without task", func(t *testing.T) {
		t.Parallel()

		fake, repo := newTask(t, http.StatusOK)

		assert.Error(t, repo.Apply(context.Background(), internal.TaskEvent{Type: internal.EventTaskUpdated, ID: 4}))
		assert.Empty(t, fake.recorded())
	})

	t.Run("ERR: unknown type", func(t *testing.T) {
		t.Parallel()

		_, repo := newTask(t, http.StatusOK)

		assert.Error(t, repo.Apply(context.Background(), internal.TaskEvent{Type: "tasks.event.archived", ID: 4}))
	})
}
