package internal

import "time"

const (
	EventTaskCreated = "tasks.event.created"
	EventTaskUpdated = "tasks.event.updated"
	EventTaskDeleted = "tasks.event.deleted"
)

// TaskEvent is the message published when a Task changes. Task is nil for deleted tasks.
type TaskEvent struct {
	Type string      `json:"type"`
	ID   int64       `json:"id"`
	Task *TaskRecord `json:"task,omitempty"`
}

// NewTaskEvent returns the event of type typ for task.
func NewTaskEvent(typ string, task Task) TaskEvent {
	record := NewTaskRecord(task, time.Now())

	return TaskEvent{
		Type: typ,
		ID:   task.ID,
		Task: &record,
	}
}
