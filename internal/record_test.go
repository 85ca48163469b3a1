package internal_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/task-tracker/internal"
)

func TestTaskRecord_MarshalJSON(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("deadline without due date", func(t *testing.T) {
		t.Parallel()

		task := internal.Task{ID: 3, Title: "Pay rent", Status: internal.StatusPending, CreatedAt: created, Variant: internal.Deadline{}}

		b, err := json.Marshal(internal.NewTaskRecord(task, now))
		require.NoError(t, err)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(b, &got))

		assert.Contains(t, got, "fecha_limite")
		assert.Nil(t, got["fecha_limite"])
		assert.Equal(t, false, got["vencida"])
		assert.Equal(t, "TareaConFecha", got["tipo"])
		assert.Equal(t, "No due date set", got["info_especifica"])
		assert.NotContains(t, got, "prioridad")
	})

	t.Run("overdue deadline", func(t *testing.T) {
		t.Parallel()

		due := now.Add(-time.Hour)
		task := internal.Task{ID: 3, Title: "Pay rent", Status: internal.StatusPending, CreatedAt: created, Variant: internal.Deadline{DueAt: &due}}

		b, err := json.Marshal(internal.NewTaskRecord(task, now))
		require.NoError(t, err)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(b, &got))

		assert.Equal(t, "2025-06-01T11:00:00Z", got["fecha_limite"])
		assert.Equal(t, true, got["vencida"])
	})

	t.Run("prioritized", func(t *testing.T) {
		t.Parallel()

		task := internal.Task{ID: 2, Title: "Ship release", Status: internal.StatusCompleted, CreatedAt: created, Variant: internal.Prioritized{Priority: internal.PriorityHigh}}

		b, err := json.Marshal(internal.NewTaskRecord(task, now))
		require.NoError(t, err)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(b, &got))

		assert.Equal(t, "alta", got["prioridad"])
		assert.Equal(t, "completada", got["estado"])
		assert.Equal(t, "TareaPrioritaria", got["tipo"])
		assert.NotContains(t, got, "fecha_limite")
		assert.NotContains(t, got, "vencida")
	})
}

func TestEncodeDecodeTasks(t *testing.T) {
	t.Parallel()

	now := time.Now()
	created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	due := time.Date(2025, 7, 1, 18, 30, 0, 0, time.UTC)

	tasks := []internal.Task{
		{ID: 1, Title: "Buy milk", Status: internal.StatusCompleted, CreatedAt: created, Variant: internal.Simple{}},
		{ID: 2, Title: "Ship release", Description: "v2", Status: internal.StatusInProgress, CreatedAt: created, Variant: internal.Prioritized{Priority: internal.PriorityLow}},
		{ID: 10, Title: "Pay rent", Status: internal.StatusPending, CreatedAt: created, Variant: internal.Deadline{DueAt: &due}},
		{ID: 11, Title: "Someday", Status: internal.StatusPending, CreatedAt: created, Variant: internal.Deadline{}},
	}

	b, err := internal.EncodeTasks(tasks, now)
	require.NoError(t, err)

	got, err := internal.DecodeTasks(b)
	require.NoError(t, err)
	require.Len(t, got, len(tasks))

	for i, want := range tasks {
		assert.Equal(t, want.ID, got[i].ID)
		assert.Equal(t, want.Title, got[i].Title)
		assert.Equal(t, want.Description, got[i].Description)
		assert.Equal(t, want.Status, got[i].Status)
		assert.True(t, want.CreatedAt.Equal(got[i].CreatedAt))
		assert.Equal(t, want.Kind(), got[i].Kind())
	}

	assert.Equal(t, internal.Prioritized{Priority: internal.PriorityLow}, got[1].Variant)

	v := got[2].Variant.(internal.Deadline)
	require.NotNil(t, v.DueAt)
	assert.True(t, due.Equal(*v.DueAt))

	assert.Equal(t, internal.Deadline{}, got[3].Variant)
}

func TestDecodeTasks(t *testing.T) {
	t.Parallel()

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		got, err := internal.DecodeTasks(nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("id comes from the key and naive timestamps are accepted", func(t *testing.T) {
		t.Parallel()

		doc := `{
			"4": {
				"id": 99,
				"titulo": "Completar proyecto",
				"descripcion": "",
				"estado": "pendiente",
				"fecha_creacion": "2024-01-15T10:30:00.123456",
				"tipo": "TareaPrioritaria",
				"info_especifica": "Prioridad: alta",
				"prioridad": "alta"
			}
		}`

		got, err := internal.DecodeTasks([]byte(doc))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(4), got[0].ID)
		assert.Equal(t, internal.Prioritized{Priority: internal.PriorityHigh}, got[0].Variant)
	})

	t.Run("ERR: invalid status", func(t *testing.T) {
		t.Parallel()

		_, err := internal.DecodeTasks([]byte(`{"1": {"titulo": "x", "estado": "nope", "fecha_creacion": "2024-01-15", "tipo": "TareaSimple"}}`))
		assertInvalidArgument(t, err)
	})

	t.Run("ERR: invalid key", func(t *testing.T) {
		t.Parallel()

		_, err := internal.DecodeTasks([]byte(`{"one": {"titulo": "x", "estado": "pendiente", "fecha_creacion": "2024-01-15", "tipo": "TareaSimple"}}`))
		assertInvalidArgument(t, err)
	})

	t.Run("ERR: malformed", func(t *testing.T) {
		t.Parallel()

		_, err := internal.DecodeTasks([]byte(`[`))
		assertInvalidArgument(t, err)
	})
}
