package internal

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// TaskRecord is the JSON representation of a Task, it is used by the persisted document, the HTTP API and the
// published events. SpecificInfo and Overdue are derived values, they are ignored when converting back to Task.
type TaskRecord struct {
	ID           int64     `json:"id"`
	Title        string    `json:"titulo"`
	Description  string    `json:"descripcion"`
	Status       Status    `json:"estado"`
	CreatedAt    string    `json:"fecha_creacion"`
	Kind         Kind      `json:"tipo"`
	SpecificInfo string    `json:"info_especifica"`
	Priority     *Priority `json:"prioridad,omitempty"`
	DueAt        *string   `json:"fecha_limite,omitempty"`
	Overdue      *bool     `json:"vencida,omitempty"`
}

// NewTaskRecord converts t, derived values are calculated using now.
func NewTaskRecord(t Task, now time.Time) TaskRecord {
	res := TaskRecord{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339Nano),
		Kind:         t.Kind(),
		SpecificInfo: t.SpecificInfo(),
	}

	switch v := t.Variant.(type) {
	case Prioritized:
		priority := v.Priority
		res.Priority = &priority
	case Deadline:
		if v.DueAt != nil {
			due := v.DueAt.Format(time.RFC3339Nano)
			res.DueAt = &due
		}
		overdue := t.Overdue(now)
		res.Overdue = &overdue
	}

	return res
}

// MarshalJSON writes "fecha_limite" as null for deadline tasks without a due date.
func (r TaskRecord) MarshalJSON() ([]byte, error) {
	type alias TaskRecord

	if r.Kind != KindDeadline {
		return json.Marshal(alias(r))
	}

	overdue := r.Overdue != nil && *r.Overdue

	return json.Marshal(struct {
		alias
		DueAt   *string `json:"fecha_limite"`
		Overdue bool    `json:"vencida"`
	}{
		alias:   alias(r),
		DueAt:   r.DueAt,
		Overdue: overdue,
	})
}

// Task converts the record back to a Task.
func (r TaskRecord) Task() (Task, error) {
	status, ok := ParseStatus(string(r.Status))
	if !ok {
		return Task{}, NewErrorf(ErrorCodeInvalidArgument, "task %d: unknown status %q", r.ID, r.Status)
	}

	createdAt := ParseTimestamp(r.CreatedAt)
	if createdAt == nil {
		return Task{}, NewErrorf(ErrorCodeInvalidArgument, "task %d: invalid creation date %q", r.ID, r.CreatedAt)
	}

	var priority *string
	if r.Priority != nil {
		p := string(*r.Priority)
		priority = &p
	}

	return Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      status,
		CreatedAt:   *createdAt,
		Variant:     NewVariant(ParseKind(string(r.Kind)), priority, r.DueAt),
	}, nil
}

// EncodeTasks returns the document holding tasks, an object indexed by the stringified task ids.
func EncodeTasks(tasks []Task, now time.Time) ([]byte, error) {
	doc := make(map[string]TaskRecord, len(tasks))
	for _, t := range tasks {
		doc[strconv.FormatInt(t.ID, 10)] = NewTaskRecord(t, now)
	}

	res, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, WrapErrorf(err, ErrorCodeUnknown, "json.MarshalIndent")
	}

	return res, nil
}

// DecodeTasks parses a document created by EncodeTasks, tasks are returned sorted by id. The id of each task is
// taken from its key. An empty document has no tasks.
func DecodeTasks(data []byte) ([]Task, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Task{}, nil
	}

	var doc map[string]TaskRecord
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, WrapErrorf(err, ErrorCodeInvalidArgument, "json.Unmarshal")
	}

	res := make([]Task, 0, len(doc))

	for key, record := range doc {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, WrapErrorf(err, ErrorCodeInvalidArgument, "invalid task key %q", key)
		}

		record.ID = id

		task, err := record.Task()
		if err != nil {
			return nil, err
		}

		res = append(res, task)
	}

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })

	return res, nil
}
