package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sanLimbu/task-tracker/internal"
)

// DefaultDocument is the name of the row holding the tasks when no name is configured.
const DefaultDocument = "tasks"

// DB is implemented by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Task represents the repository used for persisting Task records as one JSONB document.
type Task struct {
	db   DB
	name string
}

// NewTask instantiates the Task repository.
func NewTask(db DB, name string) *Task {
	if name == "" {
		name = DefaultDocument
	}

	return &Task{
		db:   db,
		name: name,
	}
}

// Init creates the table used for storing the documents.
func (t *Task) Init(ctx context.Context) error {
	ctx, span := newOTELSpan(ctx, "Task.Init")
	defer span.End()

	if _, err := t.db.Exec(ctx, createTableQuery); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "create table")
	}

	return nil
}

// Load reads all the tasks, a missing row means there are no tasks.
func (t *Task) Load(ctx context.Context) ([]internal.Task, error) {
	ctx, span := newOTELSpan(ctx, "Task.Load")
	defer span.End()

	var data []byte

	if err := t.db.QueryRow(ctx, selectDocumentQuery, t.name).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []internal.Task{}, nil
		}

		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "select document")
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

	if _, err := t.db.Exec(ctx, upsertDocumentQuery, t.name, string(data)); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "upsert document")
	}

	return nil
}
