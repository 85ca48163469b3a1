package internal

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	titleMaxLength       = 200
	descriptionMaxLength = 1000
)

var errBlank = validation.NewError("validation_not_blank", "must not be blank")

// notBlank fails for strings that are empty after trimming, nil pointers are skipped.
func notBlank(value interface{}) error {
	v, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}

	if s, _ := v.(string); strings.TrimSpace(s) == "" {
		return errBlank
	}

	return nil
}

// CreateParams defines the arguments used for creating Task records.
type CreateParams struct {
	Kind        Kind    `json:"tipo"`
	Title       string  `json:"titulo"`
	Description string  `json:"descripcion"`
	Priority    *string `json:"prioridad"`
	DueAt       *string `json:"fecha_limite"`
}

// Validate indicates whether the fields are valid or not.
func (c CreateParams) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Title, validation.By(notBlank), validation.RuneLength(0, titleMaxLength)),
		validation.Field(&c.Description, validation.RuneLength(0, descriptionMaxLength)),
	); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "validation.ValidateStruct")
	}

	return nil
}

// NewTask returns a pending Task built from params. Unknown kinds become Simple tasks, invalid priorities and due
// dates fall back to their defaults.
func NewTask(id int64, params CreateParams, now time.Time) Task {
	return Task{
		ID:          id,
		Title:       params.Title,
		Description: params.Description,
		Status:      StatusPending,
		CreatedAt:   now,
		Variant:     NewVariant(ParseKind(string(params.Kind)), params.Priority, params.DueAt),
	}
}

// UpdateParams defines the arguments used for updating Task records, nil fields are left untouched.
type UpdateParams struct {
	Title       *string `json:"titulo"`
	Description *string `json:"descripcion"`
	Status      *string `json:"estado"`
	Priority    *string `json:"prioridad"`
	// DueAtSet indicates the due date was included, a nil DueAt then clears it.
	DueAtSet bool    `json:"-"`
	DueAt    *string `json:"fecha_limite"`
}

// Validate indicates whether the fields are valid or not.
func (u UpdateParams) Validate() error {
	if err := validation.ValidateStruct(&u,
		validation.Field(&u.Title, validation.By(notBlank), validation.RuneLength(0, titleMaxLength)),
		validation.Field(&u.Description, validation.RuneLength(0, descriptionMaxLength)),
	); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "validation.ValidateStruct")
	}

	return nil
}

// Apply returns a copy of t with params applied. Unrecognized statuses and priorities are ignored, fields that
// don't belong to the task variant are ignored and a malformed due date clears it.
func (t Task) Apply(params UpdateParams) (Task, error) {
	if err := params.Validate(); err != nil {
		return Task{}, err
	}

	if params.Title != nil {
		t.Title = *params.Title
	}

	if params.Description != nil {
		t.Description = *params.Description
	}

	if params.Status != nil {
		if status, ok := ParseStatus(*params.Status); ok {
			t.Status = status
		}
	}

	switch v := t.Variant.(type) {
	case Prioritized:
		if params.Priority != nil {
			if priority, ok := ParsePriority(*params.Priority); ok {
				v.Priority = priority
				t.Variant = v
			}
		}
	case Deadline:
		if params.DueAtSet || params.DueAt != nil {
			var due *time.Time
			if params.DueAt != nil {
				due = ParseTimestamp(*params.DueAt)
			}
			t.Variant = Deadline{DueAt: due}
		}
	}

	return t, nil
}

// Statistics counts tasks per status.
type Statistics struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
}
