package jsonfile

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sanLimbu/task-tracker/internal"
)

const otelName = "github.com/sanLimbu/task-tracker/internal/jsonfile"

// DefaultPath is the file used when no path is configured.
const DefaultPath = "tareas.json"

// Task represents the repository used for persisting Task records into a JSON file.
type Task struct {
	path string
}

// NewTask instantiates the Task repository.
func NewTask(path string) *Task {
	if path == "" {
		path = DefaultPath
	}

	return &Task{
		path: path,
	}
}

// Load reads all the tasks, a missing file means there are no tasks.
func (t *Task) Load(ctx context.Context) ([]internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Load", t.path).End()

	data, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []internal.Task{}, nil
		}

		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "os.ReadFile")
	}

	tasks, err := internal.DecodeTasks(data)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "internal.DecodeTasks")
	}

	return tasks, nil
}

// Save replaces the file contents with tasks. The document is written to a temporary file first and then
// renamed, so readers never see a partial document.
func (t *Task) Save(ctx context.Context, tasks []internal.Task) error {
	defer newOTELSpan(ctx, "Task.Save", t.path).End()

	data, err := internal.EncodeTasks(tasks, time.Now())
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "internal.EncodeTasks")
	}

	tmp, err := os.CreateTemp(filepath.Dir(t.path), filepath.Base(t.path)+".*.tmp")
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "os.CreateTemp")
	}

	defer os.Remove(tmp.Name()) // No-op once renamed.

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "tmp.Write")
	}

	if err := tmp.Close(); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "tmp.Close")
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "os.Chmod")
	}

	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "os.Rename")
	}

	return nil
}

func newOTELSpan(ctx context.Context, name, path string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(attribute.String("file.path", path))

	return span
}
