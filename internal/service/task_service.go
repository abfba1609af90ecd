package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/taskward/taskward/internal/domain"
	"github.com/taskward/taskward/internal/store"
)

// CreateTaskInput carries the caller-supplied fields for task creation.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Priority    domain.TaskPriority
	Assignable  domain.ActorRef
}

// UpdateTaskInput carries a partial update; nil fields are left unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *domain.TaskPriority
	Assignable  *domain.ActorRef
}

// TaskService provides ownership-scoped task operations. Every mutation
// takes the acting ActorRef explicitly; there is no ambient "current actor".
// All mutations execute inside a single transaction: they either fully
// commit or fully roll back, and failures surface as typed errors rather
// than panics.
type TaskService interface {
	// Create inserts a new task with creator = updater = actor.
	// Anyone authenticated may create; there is no ownership check.
	Create(ctx context.Context, input CreateTaskInput, actor domain.ActorRef) (*domain.Task, error)

	// Update applies a partial update to a task owned by actor (assignable
	// or creator) and records actor as updater. Returns ErrTaskNotFound for
	// missing and unowned tasks alike.
	Update(ctx context.Context, id int64, input UpdateTaskInput, actor domain.ActorRef) (*domain.Task, error)

	// UpdateStatus changes only the status, under the completion rule:
	// entering COMPLETED is valid only from IN_PROGRESS.
	UpdateStatus(ctx context.Context, id int64, status domain.TaskStatus, actor domain.ActorRef) (*domain.Task, error)

	// SoftDelete marks a task deleted. Creator-only: the assignable actor
	// cannot delete, and gets ErrTaskNotFound.
	SoftDelete(ctx context.Context, id int64, actor domain.ActorRef) error

	// Restore clears the deleted marker on a trashed task.
	Restore(ctx context.Context, id int64) error

	// ForceDelete permanently removes a trashed task.
	ForceDelete(ctx context.Context, id int64) error

	// Get retrieves a live task without ownership scoping.
	Get(ctx context.Context, id int64) (*domain.Task, error)

	// List returns tasks matching the filter.
	List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error)

	// ListTrashed returns soft-deleted tasks created by actor.
	ListTrashed(ctx context.Context, actor domain.ActorRef, limit, offset int) ([]*domain.Task, error)
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	db        *sql.DB
	taskStore store.TaskStore
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(db *sql.DB, taskStore store.TaskStore, logger *slog.Logger) (TaskService, error) {
	if db == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if taskStore == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "taskStore cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		db:        db,
		taskStore: taskStore,
		logger:    logger.With(slog.String("component", "task_service")),
	}, nil
}

// Create implements TaskService.Create
func (s *taskServiceImpl) Create(
	ctx context.Context,
	input CreateTaskInput,
	actor domain.ActorRef,
) (*domain.Task, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	// Validation happens before any store mutation is attempted.
	task, err := domain.NewTask(
		input.Title,
		input.Description,
		input.DueDate,
		input.Priority,
		input.Assignable,
		actor,
	)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.taskStore.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		s.logger.Error("task creation failed",
			slog.String("error", err.Error()),
			slog.String("actor", actor.String()))
		return nil, newTaskServiceError("create_task", "failed to persist task", err)
	}

	s.logger.Info("task created",
		slog.Int64("task_id", task.ID),
		slog.String("creator", actor.String()),
		slog.String("assignable", task.Assignable.String()))
	return task, nil
}

// Update implements TaskService.Update
func (s *taskServiceImpl) Update(
	ctx context.Context,
	id int64,
	input UpdateTaskInput,
	actor domain.ActorRef,
) (*domain.Task, error) {
	var updated *domain.Task

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		ts := s.taskStore.WithTx(tx)

		task, err := ts.GetOwned(ctx, id, actor)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if input.Title != nil {
			task.Title = *input.Title
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.DueDate != nil {
			if err := domain.ValidateDueDate(*input.DueDate, now); err != nil {
				return err
			}
			task.DueDate = *input.DueDate
		}
		if input.Priority != nil {
			task.Priority = *input.Priority
		}
		if input.Assignable != nil {
			task.Assignable = *input.Assignable
		}
		task.Updater = actor
		task.UpdatedAt = now

		if err := task.Validate(); err != nil {
			return err
		}

		if err := ts.Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		// Validation failures and ownership misses are routine caller
		// outcomes, not store failures; keep them out of the error sink.
		if !IsValidationError(err) && !store.IsNotFoundError(err) {
			s.logger.Error("task update failed",
				slog.String("error", err.Error()),
				slog.Int64("task_id", id),
				slog.String("actor", actor.String()))
		}
		return nil, newTaskServiceError("update_task", "failed to update task", err)
	}

	return updated, nil
}

// UpdateStatus implements TaskService.UpdateStatus
func (s *taskServiceImpl) UpdateStatus(
	ctx context.Context,
	id int64,
	status domain.TaskStatus,
	actor domain.ActorRef,
) (*domain.Task, error) {
	var updated *domain.Task

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		ts := s.taskStore.WithTx(tx)

		task, err := ts.GetOwned(ctx, id, actor)
		if err != nil {
			return err
		}

		if err := task.ChangeStatus(status, actor); err != nil {
			return err
		}

		if err := ts.Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		if !IsValidationError(err) && !store.IsNotFoundError(err) {
			s.logger.Error("task status update failed",
				slog.String("error", err.Error()),
				slog.Int64("task_id", id),
				slog.String("status", status.String()),
				slog.String("actor", actor.String()))
		}
		return nil, newTaskServiceError("update_status", "failed to update task status", err)
	}

	s.logger.Info("task status updated",
		slog.Int64("task_id", id),
		slog.String("status", status.String()),
		slog.String("actor", actor.String()))
	return updated, nil
}

// SoftDelete implements TaskService.SoftDelete
func (s *taskServiceImpl) SoftDelete(ctx context.Context, id int64, actor domain.ActorRef) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.taskStore.WithTx(tx).SoftDelete(ctx, id, actor)
	})
	if err != nil {
		if !store.IsNotFoundError(err) {
			s.logger.Error("task soft-delete failed",
				slog.String("error", err.Error()),
				slog.Int64("task_id", id),
				slog.String("actor", actor.String()))
		}
		return newTaskServiceError("soft_delete", "failed to delete task", err)
	}

	s.logger.Info("task soft-deleted",
		slog.Int64("task_id", id),
		slog.String("actor", actor.String()))
	return nil
}

// Restore implements TaskService.Restore
func (s *taskServiceImpl) Restore(ctx context.Context, id int64) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.taskStore.WithTx(tx).Restore(ctx, id)
	})
	if err != nil {
		return newTaskServiceError("restore", "failed to restore task", err)
	}

	s.logger.Info("task restored", slog.Int64("task_id", id))
	return nil
}

// ForceDelete implements TaskService.ForceDelete
func (s *taskServiceImpl) ForceDelete(ctx context.Context, id int64) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.taskStore.WithTx(tx).ForceDelete(ctx, id)
	})
	if err != nil {
		return newTaskServiceError("force_delete", "failed to purge task", err)
	}

	s.logger.Info("task purged", slog.Int64("task_id", id))
	return nil
}

// Get implements TaskService.Get
func (s *taskServiceImpl) Get(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, id, false)
	if err != nil {
		return nil, newTaskServiceError("get_task", "failed to load task", err)
	}
	return task, nil
}

// List implements TaskService.List
func (s *taskServiceImpl) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	tasks, err := s.taskStore.List(ctx, filter)
	if err != nil {
		return nil, newTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

// ListTrashed implements TaskService.ListTrashed
func (s *taskServiceImpl) ListTrashed(
	ctx context.Context,
	actor domain.ActorRef,
	limit, offset int,
) ([]*domain.Task, error) {
	filter := store.TaskFilter{
		Creator:     &actor,
		OnlyDeleted: true,
		SortBy:      "updated_at",
		Limit:       limit,
		Offset:      offset,
	}
	tasks, err := s.taskStore.List(ctx, filter)
	if err != nil {
		return nil, newTaskServiceError("list_trashed", "failed to list trashed tasks", err)
	}
	return tasks, nil
}
