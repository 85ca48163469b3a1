package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sanLimbu/task-tracker/internal"
)

const otelName = "github.com/sanLimbu/task-tracker/internal/service"

// TaskRepository defines the datastore persisting the whole set of Task records as one document.
type TaskRepository interface {
	Load(ctx context.Context) ([]internal.Task, error)
	Save(ctx context.Context, tasks []internal.Task) error
}

// TaskMessageBrokerRepository defines the message broker notified about changes to Task records.
type TaskMessageBrokerRepository interface {
	Created(ctx context.Context, task internal.Task) error
	Deleted(ctx context.Context, id int64) error
	Updated(ctx context.Context, task internal.Task) error
}

// TaskStore defines the application service in charge of interacting with Tasks. It owns the tasks and the
// next id, every mutation rewrites the persisted document.
type TaskStore struct {
	logger    *zap.Logger
	repo      TaskRepository
	msgBroker TaskMessageBrokerRepository
	mutations metric.Int64Counter

	mu     sync.Mutex
	tasks  map[int64]internal.Task
	nextID int64
}

// NewTaskStore instantiates the TaskStore, the tasks are loaded from repo. msgBroker is optional.
func NewTaskStore(ctx context.Context, logger *zap.Logger, repo TaskRepository, msgBroker TaskMessageBrokerRepository) (*TaskStore, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "NewTaskStore")
	defer span.End()

	mutations, err := otel.Meter(otelName).Int64Counter("task_store.mutations",
		metric.WithDescription("Number of successful mutations applied to the task store"))
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "meter.Int64Counter")
	}

	tasks, err := repo.Load(ctx)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "repo.Load")
	}

	s := &TaskStore{
		logger:    logger,
		repo:      repo,
		msgBroker: msgBroker,
		mutations: mutations,
		tasks:     make(map[int64]internal.Task, len(tasks)),
		nextID:    1,
	}

	for _, task := range tasks {
		s.tasks[task.ID] = task
		if task.ID >= s.nextID {
			s.nextID = task.ID + 1
		}
	}

	logger.Info("Tasks loaded", zap.Int("total", len(s.tasks)), zap.Int64("next_id", s.nextID))

	return s, nil
}

// Create stores a new record.
func (s *TaskStore) Create(ctx context.Context, params internal.CreateParams) (internal.Task, error) {
	ctx, span := newOTELSpan(ctx, "TaskStore.Create")
	defer span.End()

	if err := params.Validate(); err != nil {
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "params.Validate")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := internal.NewTask(s.nextID, params, time.Now())
	s.nextID++

	if err := s.put(ctx, task); err != nil {
		return internal.Task{}, err
	}

	span.SetAttributes(attribute.Int64("task.id", task.ID))
	s.record(ctx, "create")

	s.publish(ctx, "Created", func(ctx context.Context) error { return s.msgBroker.Created(ctx, task) })

	return task, nil
}

// Task gets an existing Task.
func (s *TaskStore) Task(ctx context.Context, id int64) (internal.Task, error) {
	_, span := newOTELSpan(ctx, "TaskStore.Task")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return internal.Task{}, internal.NewErrorf(internal.ErrorCodeNotFound, "task %d not found", id)
	}

	return task, nil
}

// List returns all tasks sorted by id. When status is a recognized status only the tasks in that status are
// returned, any other value is ignored.
func (s *TaskStore) List(ctx context.Context, status string) ([]internal.Task, error) {
	_, span := newOTELSpan(ctx, "TaskStore.List")
	defer span.End()

	filter, filtered := internal.ParseStatus(status)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sorted(func(t internal.Task) bool {
		return !filtered || t.Status == filter
	}), nil
}

// Update updates an existing Task.
func (s *TaskStore) Update(ctx context.Context, id int64, params internal.UpdateParams) (internal.Task, error) {
	ctx, span := newOTELSpan(ctx, "TaskStore.Update")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return internal.Task{}, internal.NewErrorf(internal.ErrorCodeNotFound, "task %d not found", id)
	}

	updated, err := task.Apply(params)
	if err != nil {
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "task.Apply")
	}

	if err := s.put(ctx, updated); err != nil {
		return internal.Task{}, err
	}

	s.record(ctx, "update")

	s.publish(ctx, "Updated", func(ctx context.Context) error { return s.msgBroker.Updated(ctx, updated) })

	return updated, nil
}

// Delete removes an existing Task.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	ctx, span := newOTELSpan(ctx, "TaskStore.Delete")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task %d not found", id)
	}

	delete(s.tasks, id)

	if err := s.save(ctx); err != nil {
		s.tasks[id] = task
		return err
	}

	s.record(ctx, "delete")

	s.publish(ctx, "Deleted", func(ctx context.Context) error { return s.msgBroker.Deleted(ctx, id) })

	return nil
}

// Complete marks an existing Task as completed, whatever its current status is.
func (s *TaskStore) Complete(ctx context.Context, id int64) (internal.Task, error) {
	ctx, span := newOTELSpan(ctx, "TaskStore.Complete")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return internal.Task{}, internal.NewErrorf(internal.ErrorCodeNotFound, "task %d not found", id)
	}

	task.Complete()

	if err := s.put(ctx, task); err != nil {
		return internal.Task{}, err
	}

	if task.Kind() == internal.KindPrioritized {
		s.logger.Info("Prioritized task completed", zap.Int64("id", task.ID), zap.String("title", task.Title))
	}

	s.record(ctx, "complete")

	s.publish(ctx, "Updated", func(ctx context.Context) error { return s.msgBroker.Updated(ctx, task) })

	return task, nil
}

// Statistics counts the tasks per status.
func (s *TaskStore) Statistics(ctx context.Context) (internal.Statistics, error) {
	_, span := newOTELSpan(ctx, "TaskStore.Statistics")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	res := internal.Statistics{Total: len(s.tasks)}

	for _, task := range s.tasks {
		switch task.Status {
		case internal.StatusPending:
			res.Pending++
		case internal.StatusInProgress:
			res.InProgress++
		case internal.StatusCompleted:
			res.Completed++
		}
	}

	return res, nil
}

// Overdue returns the deadline tasks with a due date before the current time, sorted by id.
func (s *TaskStore) Overdue(ctx context.Context) ([]internal.Task, error) {
	_, span := newOTELSpan(ctx, "TaskStore.Overdue")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	return s.sorted(func(t internal.Task) bool {
		return t.Overdue(now)
	}), nil
}

// put stores task and persists the document, on failure the previous value is restored.
func (s *TaskStore) put(ctx context.Context, task internal.Task) error {
	prev, existed := s.tasks[task.ID]

	s.tasks[task.ID] = task

	if err := s.save(ctx); err != nil {
		if existed {
			s.tasks[task.ID] = prev
		} else {
			delete(s.tasks, task.ID)
		}

		return err
	}

	return nil
}

func (s *TaskStore) save(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.sorted(nil)); err != nil {
		s.logger.Error("Couldn't persist tasks", zap.Error(err))
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "repo.Save")
	}

	return nil
}

// sorted returns the tasks matching keep, all of them when keep is nil, sorted by id.
func (s *TaskStore) sorted(keep func(internal.Task) bool) []internal.Task {
	res := make([]internal.Task, 0, len(s.tasks))

	for _, task := range s.tasks {
		if keep == nil || keep(task) {
			res = append(res, task)
		}
	}

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })

	return res
}

func (s *TaskStore) record(ctx context.Context, operation string) {
	s.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// publish notifies the message broker, failures are logged and ignored.
func (s *TaskStore) publish(ctx context.Context, event string, fn func(context.Context) error) {
	if s.msgBroker == nil {
		return
	}

	if err := fn(ctx); err != nil {
		s.logger.Warn("Couldn't publish event", zap.String("event", event), zap.Error(err))
	}
}

func newOTELSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(otelName).Start(ctx, name)
}
