package memcached

import (
	"context"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sanLimbu/task-tracker/internal"
)

const otelName = "github.com/sanLimbu/task-tracker/internal/memcached"

// Client is implemented by *memcache.Client.
type Client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
}

func deleteDocument(ctx context.Context, client Client, key string) {
	defer newOTELSpan(ctx, "deleteDocument").End()

	_ = client.Delete(key)
}

func getDocument(ctx context.Context, client Client, key string) ([]byte, error) {
	defer newOTELSpan(ctx, "getDocument").End()

	item, err := client.Get(key)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Get")
	}

	return item.Value, nil
}

func setDocument(ctx context.Context, client Client, key string, value []byte, expiration time.Duration) {
	defer newOTELSpan(ctx, "setDocument").End()

	_ = client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
}

func newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemMemcached)

	return span
}
