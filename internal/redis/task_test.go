package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rv8 "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/task-tracker/internal"
	"github.com/sanLimbu/task-tracker/internal/redis"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *rv8.Client) {
	t.Helper()

	srv := miniredis.RunT(t)

	client := rv8.NewClient(&rv8.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return srv, client
}

func TestTask_Load_MissingKey(t *testing.T) {
	t.Parallel()

	_, client := newClient(t)

	tasks, err := redis.NewTask(client, "").Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTask_SaveLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv, client := newClient(t)
	repo := redis.NewTask(client, "tasks:test")

	created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	tasks := []internal.Task{
		{ID: 1, Title: "Buy milk", Status: internal.StatusPending, CreatedAt: created, Variant: internal.Simple{}},
		{ID: 4, Title: "Ship release", Status: internal.StatusCompleted, CreatedAt: created, Variant: internal.Prioritized{Priority: internal.PriorityLow}},
	}

	require.NoError(t, repo.Save(ctx, tasks))
	assert.True(t, srv.Exists("tasks:test"))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[1].ID)
	assert.Equal(t, internal.Prioritized{Priority: internal.PriorityLow}, got[1].Variant)
}

func TestTask_Load_Error(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv, client := newClient(t)

	require.NoError(t, srv.Set(redis.DefaultKey, "{broken"))

	_, err := redis.NewTask(client, "").Load(ctx)
	assert.Error(t, err)
}
