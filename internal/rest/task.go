package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sanLimbu/task-tracker/internal"
)

const idRegEx string = `[0-9]+`

// TaskService defines the operations exposed over HTTP.
type TaskService interface {
	Create(ctx context.Context, params internal.CreateParams) (internal.Task, error)
	Task(ctx context.Context, id int64) (internal.Task, error)
	List(ctx context.Context, status string) ([]internal.Task, error)
	Update(ctx context.Context, id int64, params internal.UpdateParams) (internal.Task, error)
	Delete(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64) (internal.Task, error)
	Statistics(ctx context.Context) (internal.Statistics, error)
	Overdue(ctx context.Context) ([]internal.Task, error)
}

// TaskHandler ...
type TaskHandler struct {
	svc TaskService
}

// NewTaskHandler ...
func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{
		svc: svc,
	}
}

// Register connects the handlers to the router.
func (t *TaskHandler) Register(r chi.Router) {
	r.Post("/tasks", t.create)
	r.Get("/tasks", t.list)
	r.Get("/tasks/overdue", t.overdue)
	r.Get(fmt.Sprintf("/tasks/{id:%s}", idRegEx), t.task)
	r.Put(fmt.Sprintf("/tasks/{id:%s}", idRegEx), t.update)
	r.Delete(fmt.Sprintf("/tasks/{id:%s}", idRegEx), t.delete)
	r.Patch(fmt.Sprintf("/tasks/{id:%s}/complete", idRegEx), t.complete)
	r.Get("/statistics", t.statistics)
}

// Task is an activity that needs to be completed, it uses the same representation as the persisted document.
type Task = internal.TaskRecord

func newTask(task internal.Task) Task {
	return internal.NewTaskRecord(task, time.Now())
}

func newTasks(tasks []internal.Task) []Task {
	res := make([]Task, len(tasks))
	for i, task := range tasks {
		res[i] = newTask(task)
	}

	return res
}

// CreateTasksRequest defines the request used for creating tasks.
type CreateTasksRequest struct {
	Kind        string  `json:"tipo"`
	Title       string  `json:"titulo"`
	Description string  `json:"descripcion"`
	Priority    *string `json:"prioridad"`
	DueAt       *string `json:"fecha_limite"`
}

func (t *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderErrorResponse(r.Context(), w, "invalid request",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "json decoder"))
		return
	}
	defer r.Body.Close()

	task, err := t.svc.Create(r.Context(), internal.CreateParams{
		Kind:        internal.Kind(req.Kind),
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueAt:       req.DueAt,
	})
	if err != nil {
		renderErrorResponse(r.Context(), w, "create failed", err)
		return
	}

	renderResponse(w, newTask(task), http.StatusCreated)
}

// ListTasksResponse defines the response returned back after listing tasks.
type ListTasksResponse struct {
	Tasks []Task `json:"tasks"`
	Total int    `json:"total"`
}

func (t *TaskHandler) list(w http.ResponseWriter, r *http.Request) {
	tasks, err := t.svc.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		renderErrorResponse(r.Context(), w, "list failed", err)
		return
	}

	renderResponse(w, &ListTasksResponse{Tasks: newTasks(tasks), Total: len(tasks)}, http.StatusOK)
}

func (t *TaskHandler) overdue(w http.ResponseWriter, r *http.Request) {
	tasks, err := t.svc.Overdue(r.Context())
	if err != nil {
		renderErrorResponse(r.Context(), w, "overdue failed", err)
		return
	}

	renderResponse(w, &ListTasksResponse{Tasks: newTasks(tasks), Total: len(tasks)}, http.StatusOK)
}

func (t *TaskHandler) task(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		renderErrorResponse(r.Context(), w, "invalid id", err)
		return
	}

	task, err := t.svc.Task(r.Context(), id)
	if err != nil {
		renderErrorResponse(r.Context(), w, "find failed", err)
		return
	}

	renderResponse(w, newTask(task), http.StatusOK)
}

// UpdateTasksRequest defines the request used for updating a task, missing fields are left untouched.
type UpdateTasksRequest struct {
	Title       *string      `json:"titulo"`
	Description *string      `json:"descripcion"`
	Status      *string      `json:"estado"`
	Priority    *string      `json:"prioridad"`
	DueAt       nullableTime `json:"fecha_limite"`
}

// nullableTime distinguishes a missing value from an explicit null.
type nullableTime struct {
	Set   bool
	Value *string
}

func (n *nullableTime) UnmarshalJSON(b []byte) error {
	n.Set = true

	if string(b) == "null" {
		n.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	n.Value = &s

	return nil
}

func (t *TaskHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		renderErrorResponse(r.Context(), w, "invalid id", err)
		return
	}

	var req UpdateTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderErrorResponse(r.Context(), w, "invalid request",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "json decoder"))
		return
	}
	defer r.Body.Close()

	task, err := t.svc.Update(r.Context(), id, internal.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueAtSet:    req.DueAt.Set,
		DueAt:       req.DueAt.Value,
	})
	if err != nil {
		renderErrorResponse(r.Context(), w, "update failed", err)
		return
	}

	renderResponse(w, newTask(task), http.StatusOK)
}

// DeleteTaskResponse defines the response returned back after deleting a task.
type DeleteTaskResponse struct {
	Message string `json:"message"`
}

func (t *TaskHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		renderErrorResponse(r.Context(), w, "invalid id", err)
		return
	}

	if err := t.svc.Delete(r.Context(), id); err != nil {
		renderErrorResponse(r.Context(), w, "delete failed", err)
		return
	}

	renderResponse(w, &DeleteTaskResponse{Message: fmt.Sprintf("Task %d deleted", id)}, http.StatusOK)
}

func (t *TaskHandler) complete(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		renderErrorResponse(r.Context(), w, "invalid id", err)
		return
	}

	task, err := t.svc.Complete(r.Context(), id)
	if err != nil {
		renderErrorResponse(r.Context(), w, "complete failed", err)
		return
	}

	renderResponse(w, newTask(task), http.StatusOK)
}

// StatisticsResponse defines the response returned back with the task counts.
type StatisticsResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pendientes"`
	InProgress int `json:"en_progreso"`
	Completed  int `json:"completadas"`
}

func (t *TaskHandler) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := t.svc.Statistics(r.Context())
	if err != nil {
		renderErrorResponse(r.Context(), w, "statistics failed", err)
		return
	}

	renderResponse(w, &StatisticsResponse{
		Total:      stats.Total,
		Pending:    stats.Pending,
		InProgress: stats.InProgress,
		Completed:  stats.Completed,
	}, http.StatusOK)
}

func taskID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "strconv.ParseInt")
	}

	return id, nil
}
