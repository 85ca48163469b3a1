package internal

import (
	"fmt"
	"strings"
	"time"
)

// Status indicates the lifecycle stage of a Task.
type Status string

const (
	StatusPending    Status = "pendiente"
	StatusInProgress Status = "en_progreso"
	StatusCompleted  Status = "completada"
)

// ParseStatus converts s into a Status, English names are accepted as well. The second value is false when s
// is not a recognized status.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pendiente", "pending":
		return StatusPending, true
	case "en_progreso", "in_progress":
		return StatusInProgress, true
	case "completada", "completed":
		return StatusCompleted, true
	}

	return "", false
}

// Priority indicates how important a Prioritized task is.
type Priority string

const (
	PriorityLow    Priority = "baja"
	PriorityMedium Priority = "media"
	PriorityHigh   Priority = "alta"
)

// ParsePriority converts s into a Priority, English names are accepted as well. The second value is false when
// s is not a recognized priority.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "baja", "low":
		return PriorityLow, true
	case "media", "medium":
		return PriorityMedium, true
	case "alta", "high":
		return PriorityHigh, true
	}

	return "", false
}

// Kind is the discriminator of a task Variant, its value is the tag used in the persisted document.
type Kind string

const (
	KindSimple      Kind = "TareaSimple"
	KindPrioritized Kind = "TareaPrioritaria"
	KindDeadline    Kind = "TareaConFecha"
)

// ParseKind converts s into a Kind. Both the request names ("simple", "prioritaria", "con_fecha") and the
// persisted tags are accepted, anything else is KindSimple.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prioritaria", "prioritized", strings.ToLower(string(KindPrioritized)):
		return KindPrioritized
	case "con_fecha", "deadline", strings.ToLower(string(KindDeadline)):
		return KindDeadline
	}

	return KindSimple
}

// Variant holds the attributes specific to one kind of task. It is implemented by Simple, Prioritized and
// Deadline only.
type Variant interface {
	Kind() Kind
	isVariant()
}

// Simple is a plain task with no extra attributes.
type Simple struct{}

// Prioritized is a task with a Priority.
type Prioritized struct {
	Priority Priority
}

// Deadline is a task that may have a due date.
type Deadline struct {
	DueAt *time.Time
}

func (Simple) Kind() Kind      { return KindSimple }
func (Prioritized) Kind() Kind { return KindPrioritized }
func (Deadline) Kind() Kind    { return KindDeadline }

func (Simple) isVariant()      {}
func (Prioritized) isVariant() {}
func (Deadline) isVariant()    {}

// NewVariant returns the Variant for kind initialized from the raw, optional, priority and due date values.
// Invalid values fall back to the defaults: PriorityMedium and no due date.
func NewVariant(kind Kind, priority, dueAt *string) Variant {
	switch kind {
	case KindPrioritized:
		p := PriorityMedium
		if priority != nil {
			if v, ok := ParsePriority(*priority); ok {
				p = v
			}
		}
		return Prioritized{Priority: p}
	case KindDeadline:
		var due *time.Time
		if dueAt != nil {
			due = ParseTimestamp(*dueAt)
		}
		return Deadline{DueAt: due}
	}

	return Simple{}
}

// Task is an activity that needs to be completed.
type Task struct {
	ID          int64
	Title       string
	Description string
	Status      Status
	CreatedAt   time.Time
	Variant     Variant
}

// Kind returns the discriminator of the task variant.
func (t Task) Kind() Kind {
	if t.Variant == nil {
		return KindSimple
	}

	return t.Variant.Kind()
}

// SpecificInfo returns a human readable description of the variant attributes.
func (t Task) SpecificInfo() string {
	switch v := t.Variant.(type) {
	case Prioritized:
		return fmt.Sprintf("Priority: %s", v.Priority)
	case Deadline:
		if v.DueAt == nil {
			return "No due date set"
		}
		return fmt.Sprintf("Due: %s", v.DueAt.Format("2006-01-02 15:04"))
	}

	return "Plain task with no special attributes"
}

// Overdue indicates whether the task is a Deadline task with a due date strictly before now.
func (t Task) Overdue(now time.Time) bool {
	v, ok := t.Variant.(Deadline)
	if !ok || v.DueAt == nil {
		return false
	}

	return v.DueAt.Before(now)
}

// Complete marks the task as completed, regardless of its current status.
func (t *Task) Complete() {
	t.Status = StatusCompleted
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 value, values without a zone are in local time. It returns nil when s can't
// be parsed.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t
		}
	}

	return nil
}
