package internal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/task-tracker/internal"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		output internal.Status
		ok     bool
	}{
		{"pendiente", internal.StatusPending, true},
		{"en_progreso", internal.StatusInProgress, true},
		{" COMPLETADA ", internal.StatusCompleted, true},
		{"in_progress", internal.StatusInProgress, true},
		{"bogus", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			status, ok := internal.ParseStatus(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.output, status)
		})
	}
}

func TestParsePriority(t *testing.T) {
	t.Parallel()

	priority, ok := internal.ParsePriority("high")
	assert.True(t, ok)
	assert.Equal(t, internal.PriorityHigh, priority)

	priority, ok = internal.ParsePriority("baja")
	assert.True(t, ok)
	assert.Equal(t, internal.PriorityLow, priority)

	_, ok = internal.ParsePriority("urgent")
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, internal.KindSimple, internal.ParseKind("simple"))
	assert.Equal(t, internal.KindPrioritized, internal.ParseKind("prioritaria"))
	assert.Equal(t, internal.KindPrioritized, internal.ParseKind("TareaPrioritaria"))
	assert.Equal(t, internal.KindDeadline, internal.ParseKind("con_fecha"))
	assert.Equal(t, internal.KindDeadline, internal.ParseKind("TareaConFecha"))
	assert.Equal(t, internal.KindSimple, internal.ParseKind("recurring"))
	assert.Equal(t, internal.KindSimple, internal.ParseKind(""))
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	ts := internal.ParseTimestamp("2024-12-31T23:59:59Z")
	require.NotNil(t, ts)
	assert.True(t, ts.Equal(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)))

	ts = internal.ParseTimestamp("2024-01-15T10:30:00.123456")
	require.NotNil(t, ts)
	assert.Equal(t, 123456000, ts.Nanosecond())
	assert.Equal(t, time.Local, ts.Location())

	ts = internal.ParseTimestamp("2024-01-15")
	require.NotNil(t, ts)
	assert.Equal(t, 15, ts.Day())

	assert.Nil(t, internal.ParseTimestamp("tomorrow"))
	assert.Nil(t, internal.ParseTimestamp(""))
}

func TestTask_SpecificInfo(t *testing.T) {
	t.Parallel()

	due := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		variant internal.Variant
		output  string
	}{
		{"simple", internal.Simple{}, "Plain task with no special attributes"},
		{"nil variant", nil, "Plain task with no special attributes"},
		{"prioritized", internal.Prioritized{Priority: internal.PriorityHigh}, "Priority: alta"},
		{"deadline", internal.Deadline{DueAt: &due}, "Due: 2025-03-01 09:30"},
		{"deadline without due date", internal.Deadline{}, "No due date set"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			task := internal.Task{Variant: tt.variant}
			assert.Equal(t, tt.output, task.SpecificInfo())
		})
	}
}

func TestTask_Overdue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, internal.Task{Variant: internal.Deadline{DueAt: &past}}.Overdue(now))
	assert.False(t, internal.Task{Variant: internal.Deadline{DueAt: &future}}.Overdue(now))
	assert.False(t, internal.Task{Variant: internal.Deadline{DueAt: &now}}.Overdue(now))
	assert.False(t, internal.Task{Variant: internal.Deadline{}}.Overdue(now))
	assert.False(t, internal.Task{Variant: internal.Simple{}}.Overdue(now))
}

func TestTask_Complete(t *testing.T) {
	t.Parallel()

	for _, status := range []internal.Status{internal.StatusPending, internal.StatusInProgress, internal.StatusCompleted} {
		task := internal.Task{Status: status}
		task.Complete()
		assert.Equal(t, internal.StatusCompleted, task.Status)
	}
}

func TestNewVariant(t *testing.T) {
	t.Parallel()

	str := func(s string) *string { return &s }

	assert.Equal(t, internal.Prioritized{Priority: internal.PriorityMedium}, internal.NewVariant(internal.KindPrioritized, nil, nil))
	assert.Equal(t, internal.Prioritized{Priority: internal.PriorityMedium}, internal.NewVariant(internal.KindPrioritized, str("urgent"), nil))
	assert.Equal(t, internal.Prioritized{Priority: internal.PriorityHigh}, internal.NewVariant(internal.KindPrioritized, str("alta"), nil))
	assert.Equal(t, internal.Deadline{}, internal.NewVariant(internal.KindDeadline, nil, str("not a date")))
	assert.Equal(t, internal.Simple{}, internal.NewVariant(internal.KindSimple, str("alta"), str("2024-01-01")))

	v, ok := internal.NewVariant(internal.KindDeadline, nil, str("2024-01-01T10:00:00Z")).(internal.Deadline)
	require.True(t, ok)
	require.NotNil(t, v.DueAt)
	assert.Equal(t, 2024, v.DueAt.Year())
}
