package envvar_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/task-tracker/internal"
	"github.com/sanLimbu/task-tracker/internal/envvar"
)

type fakeProvider struct {
	values map[string]string
}

func (f fakeProvider) Get(key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", errors.New("not found")
	}

	return v, nil
}

func TestConfiguration_Get(t *testing.T) {
	t.Setenv("TASKS_FILE", "tasks.json")
	t.Setenv("REDIS_HOST_SECURE", "/redis:host")
	t.Setenv("RABBITMQ_URL_SECURE", "/rabbitmq:missing")

	conf := envvar.New(fakeProvider{values: map[string]string{"/redis:host": "redis:6379"}})

	res, err := conf.Get("TASKS_FILE")
	require.NoError(t, err)
	assert.Equal(t, "tasks.json", res)

	res, err = conf.Get("REDIS_HOST")
	require.NoError(t, err)
	assert.Equal(t, "redis:6379", res)

	_, err = conf.Get("RABBITMQ_URL")

	var ierr *internal.Error
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, internal.ErrorCodeInvalidArgument, ierr.Code())
}

func TestConfiguration_GetWithoutProvider(t *testing.T) {
	t.Setenv("KAFKA_HOST_SECURE", "/kafka:host")

	conf := envvar.New(nil)

	_, err := conf.Get("KAFKA_HOST")
	assert.Error(t, err)

	res, err := conf.GetDefault("TASKS_STORAGE_UNSET", "file")
	require.NoError(t, err)
	assert.Equal(t, "file", res)
}

func TestLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "env")
	require.NoError(t, os.WriteFile(filename, []byte("ENVVAR_TEST_LOAD=loaded\n"), 0o600))

	t.Cleanup(func() { os.Unsetenv("ENVVAR_TEST_LOAD") })

	require.NoError(t, envvar.Load(filename))
	assert.Equal(t, "loaded", os.Getenv("ENVVAR_TEST_LOAD"))

	assert.Error(t, envvar.Load(filepath.Join(t.TempDir(), "missing")))
}
