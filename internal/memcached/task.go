package memcached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/sanLimbu/task-tracker/internal"
)

const keyPrefix = "task-tracker:tasks:"

// TaskRepository defines the datastore being cached.
type TaskRepository interface {
	Load(ctx context.Context) ([]internal.Task, error)
	Save(ctx context.Context, tasks []internal.Task) error
}

// Task caches the tasks document of the wrapped repository.
type Task struct {
	client     Client
	orig       TaskRepository
	key        string
	expiration time.Duration
	logger     *zap.Logger
}

// NewTask instantiates the cached Task repository, name identifies the document stored by orig, for example
// the file path or the Redis key.
func NewTask(client Client, orig TaskRepository, name string, logger *zap.Logger) *Task {
	return &Task{
		client:     client,
		orig:       orig,
		key:        DocumentKey(name),
		expiration: 15 * time.Minute,
		logger:     logger,
	}
}

// DocumentKey returns the cache key of the named document, memcached keys are limited to 250 bytes without
// whitespace.
func DocumentKey(name string) string {
	sum := sha256.Sum256([]byte(name))

	return keyPrefix + hex.EncodeToString(sum[:])
}

// Load returns the cached tasks, on a miss the wrapped repository is used and its result cached.
func (t *Task) Load(ctx context.Context) ([]internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Load").End()

	if data, err := getDocument(ctx, t.client, t.key); err == nil {
		tasks, err := internal.DecodeTasks(data)
		if err == nil {
			return tasks, nil
		}

		t.logger.Info("Load: invalid cached value", zap.Error(err))
	}

	t.logger.Info("Load: not found, let's cache it")

	// Cache-Aside Caching

	tasks, err := t.orig.Load(ctx)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "orig.Load")
	}

	t.cache(ctx, tasks)

	return tasks, nil
}

// Save persists the tasks in the wrapped repository and refreshes the cached value.
func (t *Task) Save(ctx context.Context, tasks []internal.Task) error {
	defer newOTELSpan(ctx, "Task.Save").End()

	if err := t.orig.Save(ctx, tasks); err != nil {
		deleteDocument(ctx, t.client, t.key)

		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "orig.Save")
	}

	t.cache(ctx, tasks)

	return nil
}

func (t *Task) cache(ctx context.Context, tasks []internal.Task) {
	data, err := internal.EncodeTasks(tasks, time.Now())
	if err != nil {
		deleteDocument(ctx, t.client, t.key)
		return
	}

	setDocument(ctx, t.client, t.key, data, t.expiration)
}
