package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/task-tracker/internal/rest"
)

func TestNewOpenAPI3(t *testing.T) {
	t.Parallel()

	swagger := rest.NewOpenAPI3()

	require.NotNil(t, swagger.Components)
	assert.Contains(t, swagger.Components.Schemas, "Task")
	assert.Contains(t, swagger.Components.RequestBodies, "CreateTasksRequest")
	assert.Contains(t, swagger.Components.Responses, "ErrorResponse")

	data, err := json.Marshal(&swagger)
	require.NoError(t, err)

	loaded, err := openapi3.NewLoader().LoadFromData(data)
	require.NoError(t, err)
	assert.NoError(t, loaded.Validate(context.Background()))
}

func TestRegisterOpenAPI_Standalone(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()

	require.NotPanics(t, func() { rest.RegisterOpenAPI(router) })

	req := httptest.NewRequest(http.MethodGet, "/openapi3.json", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var doc map[string]interface{}

	require.NoError(t, json.NewDecoder(rr.Body).Decode(&doc))

	components, ok := doc["components"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, components, "schemas")
}
