package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	esv7 "github.com/elastic/go-elasticsearch/v7"
	esv7api "github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/mercari/go-circuitbreaker"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sanLimbu/task-tracker/internal"
)

const otelName = "github.com/sanLimbu/task-tracker/internal/elasticsearch"

// Task represents the repository used for indexing Task records.
type Task struct {
	client *esv7.Client
	index  string
	cb     *circuitbreaker.CircuitBreaker
}

type indexedTask struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Kind        string `json:"kind"`
	Priority    string `json:"priority,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	DueAt       int64  `json:"due_at,omitempty"`
}

// NewTask instantiates the Task repository.
func NewTask(client *esv7.Client) *Task {
	return &Task{
		client: client,
		index:  "tasks",
		cb: circuitbreaker.New(
			circuitbreaker.WithOpenTimeout(10*time.Second),
			circuitbreaker.WithTripFunc(circuitbreaker.NewTripFuncConsecutiveFailures(3)),
		),
	}
}

// Index creates or updates a task in the index.
func (t *Task) Index(ctx context.Context, task internal.TaskRecord) error {
	defer newOTELSpan(ctx, "Task.Index").End()

	body := indexedTask{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Kind:        string(task.Kind),
	}

	if task.Priority != nil {
		body.Priority = string(*task.Priority)
	}

	if ts := internal.ParseTimestamp(task.CreatedAt); ts != nil {
		body.CreatedAt = ts.UnixNano()
	}

	if task.DueAt != nil {
		if ts := internal.ParseTimestamp(*task.DueAt); ts != nil {
			body.DueAt = ts.UnixNano()
		}
	}

	var buf bytes.Buffer

	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "json.NewEncoder.Encode")
	}

	req := esv7api.IndexRequest{
		Index:      t.index,
		Body:       &buf,
		DocumentID: strconv.FormatInt(task.ID, 10),
		Refresh:    "true",
	}

	return t.do(ctx, "IndexRequest.Do", func() (*esv7api.Response, error) {
		return req.Do(ctx, t.client)
	})
}

// Delete removes a task from the index.
func (t *Task) Delete(ctx context.Context, id int64) error {
	defer newOTELSpan(ctx, "Task.Delete").End()

	req := esv7api.DeleteRequest{
		Index:      t.index,
		DocumentID: strconv.FormatInt(id, 10),
	}

	return t.do(ctx, "DeleteRequest.Do", func() (*esv7api.Response, error) {
		return req.Do(ctx, t.client)
	})
}

// Apply updates the index according to evt, deleting a task that was never indexed is not an error.
func (t *Task) Apply(ctx context.Context, evt internal.TaskEvent) error {
	switch evt.Type {
	case internal.EventTaskCreated, internal.EventTaskUpdated:
		if evt.Task == nil {
			return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%s without task", evt.Type)
		}

		return t.Index(ctx, *evt.Task)
	case internal.EventTaskDeleted:
		err := t.Delete(ctx, evt.ID)

		var ierr *internal.Error
		if errors.As(err, &ierr) && ierr.Code() == internal.ErrorCodeNotFound {
			return nil
		}

		return err
	}

	return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "unknown event type %q", evt.Type)
}

// do executes the request through the circuit breaker, a missing document is not a failure.
func (t *Task) do(ctx context.Context, op string, fn func() (*esv7api.Response, error)) error {
	_, err := t.cb.Do(ctx, func() (interface{}, error) {
		resp, err := fn()
		if err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, op)
		}
		defer resp.Body.Close()

		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode == http.StatusNotFound {
			return nil, circuitbreaker.Ignore(internal.NewErrorf(internal.ErrorCodeNotFound, "%s %d", op, resp.StatusCode))
		}

		if resp.IsError() {
			return nil, internal.NewErrorf(internal.ErrorCodeUnknown, "%s %d", op, resp.StatusCode)
		}

		return nil, nil
	})

	return err
}

func newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)
	span.SetAttributes(semconv.DBSystemElasticsearch)
	return span
}
