package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sanLimbu/task-tracker/internal"
)

const otelName = "github.com/sanLimbu/task-tracker/internal/redis"

// DefaultKey is the key used when no key is configured.
const DefaultKey = "tasks"

// Task represents the repository used for persisting Task records as one document stored under a Redis key.
type Task struct {
	client *redis.Client
	key    string
}

// NewTask instantiates the Task repository.
func NewTask(client *redis.Client, key string) *Task {
	if key == "" {
		key = DefaultKey
	}

	return &Task{
		client: client,
		key:    key,
	}
}

// Load reads all the tasks, a missing key means there are no tasks.
func (t *Task) Load(ctx context.Context) ([]internal.Task, error) {
	ctx, span := newOTELSpan(ctx, "Task.Load")
	defer span.End()

	data, err := t.client.Get(ctx, t.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []internal.Task{}, nil
		}

		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Get")
	}

	tasks, err := internal.DecodeTasks(data)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "internal.DecodeTasks")
	}

	return tasks, nil
}

// Save replaces the document with tasks.
func (t *Task) Save(ctx context.Context, tasks []internal.Task) error {
	ctx, span := newOTELSpan(ctx, "Task.Save")
	defer span.End()

	data, err := internal.EncodeTasks(tasks, time.Now())
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "internal.EncodeTasks")
	}

	if err := t.client.Set(ctx, t.key, data, 0).Err(); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Set")
	}

	return nil
}

func newOTELSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemRedis)

	return ctx, span
}
