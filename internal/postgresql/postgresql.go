package postgresql

import (
	"context"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"
)

const otelName = "github.com/sanLimbu/task-tracker/internal/postgresql"

const (
	createTableQuery = `CREATE TABLE IF NOT EXISTS task_documents (
	name       TEXT PRIMARY KEY,
	content    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

	selectDocumentQuery = `SELECT content FROM task_documents WHERE name = $1`

	upsertDocumentQuery = `INSERT INTO task_documents (name, content, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (name) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`
)

func newOTELSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemPostgreSQL)

	return ctx, span
}
