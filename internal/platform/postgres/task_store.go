package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/taskward/taskward/internal/domain"
	"github.com/taskward/taskward/internal/platform/logger"
	"github.com/taskward/taskward/internal/store"
)

// taskColumns is the canonical column list scanned by scanTask.
const taskColumns = `id, title, description, due_date, priority, status,
	assignable_kind, assignable_id, creator_kind, creator_id,
	updater_kind, updater_id, created_at, updated_at, deleted_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskStore.Create
// It inserts a new task row and fills in the database-assigned ID.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (title, description, due_date, priority, status,
			assignable_kind, assignable_id, creator_kind, creator_id,
			updater_kind, updater_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		task.Title,
		nullString(task.Description),
		task.DueDate,
		int(task.Priority),
		int(task.Status),
		string(task.Assignable.Kind),
		task.Assignable.ID,
		string(task.Creator.Kind),
		task.Creator.ID,
		string(task.Updater.Kind),
		task.Updater.ID,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)

	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("creator", task.Creator.String()))
		return MapError(err)
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id int64, includeDeleted bool) (*domain.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE id = $1"
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}
	return task, nil
}

// GetOwned implements store.TaskStore.GetOwned
// The ownership check and the existence check run as one lookup: a task that
// exists but is not owned by actor produces the same ErrTaskNotFound as a
// task that does not exist.
func (s *PostgresTaskStore) GetOwned(ctx context.Context, id int64, actor domain.ActorRef) (*domain.Task, error) {
	query := "SELECT " + taskColumns + ` FROM tasks
		WHERE id = $1
		  AND deleted_at IS NULL
		  AND ((assignable_kind = $2 AND assignable_id = $3)
		    OR (creator_kind = $2 AND creator_id = $3))`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, string(actor.Kind), actor.ID))
	if err != nil {
		if IsNotFound(err) {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}
	return task, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET title = $1, description = $2, due_date = $3, priority = $4,
			status = $5, assignable_kind = $6, assignable_id = $7,
			updater_kind = $8, updater_id = $9, updated_at = $10
		WHERE id = $11 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		nullString(task.Description),
		task.DueDate,
		int(task.Priority),
		int(task.Status),
		string(task.Assignable.Kind),
		task.Assignable.ID,
		string(task.Updater.Kind),
		task.Updater.ID,
		task.UpdatedAt,
		task.ID,
	)

	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.Int64("task_id", task.ID))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return store.ErrTaskNotFound
	}
	return nil
}

// SoftDelete implements store.TaskStore.SoftDelete
// Deletion is creator-only; a row whose creator does not match the actor is
// reported as not found.
func (s *PostgresTaskStore) SoftDelete(ctx context.Context, id int64, actor domain.ActorRef) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2
		  AND deleted_at IS NULL
		  AND creator_kind = $3 AND creator_id = $4
	`
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query, now, id, string(actor.Kind), actor.ID)
	if err != nil {
		log.Error("failed to soft-delete task",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id),
			slog.String("actor", actor.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return store.ErrTaskNotFound
	}
	return nil
}

// Restore implements store.TaskStore.Restore
func (s *PostgresTaskStore) Restore(ctx context.Context, id int64) error {
	query := `
		UPDATE tasks
		SET deleted_at = NULL, updated_at = $1
		WHERE id = $2 AND deleted_at IS NOT NULL
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return store.ErrTaskNotFound
	}
	return nil
}

// ForceDelete implements store.TaskStore.ForceDelete
// The row must already be trashed; live rows are never purged directly.
func (s *PostgresTaskStore) ForceDelete(ctx context.Context, id int64) error {
	query := `DELETE FROM tasks WHERE id = $1 AND deleted_at IS NOT NULL`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return store.ErrTaskNotFound
	}
	return nil
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	query, args := buildTaskListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

// FindDueWithin implements store.TaskStore.FindDueWithin
// The window is (now, now+window]: tasks already due are excluded, tasks due
// exactly at the window edge are included.
func (s *PostgresTaskStore) FindDueWithin(
	ctx context.Context,
	now time.Time,
	window time.Duration,
	limit int,
) ([]*domain.Task, error) {
	query := "SELECT " + taskColumns + ` FROM tasks
		WHERE deleted_at IS NULL
		  AND status IN ($1, $2)
		  AND due_date > $3
		  AND due_date <= $4
		ORDER BY due_date ASC`
	args := []any{
		int(domain.TaskStatusPending),
		int(domain.TaskStatusInProgress),
		now,
		now.Add(window),
	}
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $5"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

// MarkOverdue implements store.TaskStore.MarkOverdue
// This is a system batch with no per-row ownership filter.
func (s *PostgresTaskStore) MarkOverdue(ctx context.Context, now time.Time) ([]int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE deleted_at IS NULL
		  AND status IN ($3, $4)
		  AND due_date < $2
		RETURNING id
	`
	rows, err := s.db.QueryContext(ctx, query,
		int(domain.TaskStatusOverdue),
		now,
		int(domain.TaskStatusPending),
		int(domain.TaskStatusInProgress),
	)
	if err != nil {
		log.Error("failed to mark overdue tasks",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return ids, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row in taskColumns order.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t              domain.Task
		description    sql.NullString
		assignableKind string
		creatorKind    string
		updaterKind    string
		deletedAt      sql.NullTime
	)

	err := row.Scan(
		&t.ID,
		&t.Title,
		&description,
		&t.DueDate,
		&t.Priority,
		&t.Status,
		&assignableKind,
		&t.Assignable.ID,
		&creatorKind,
		&t.Creator.ID,
		&updaterKind,
		&t.Updater.ID,
		&t.CreatedAt,
		&t.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Description = description.String
	t.Assignable.Kind = domain.ActorKind(assignableKind)
	t.Creator.Kind = domain.ActorKind(creatorKind)
	t.Updater.Kind = domain.ActorKind(updaterKind)
	if deletedAt.Valid {
		deleted := deletedAt.Time
		t.DeletedAt = &deleted
	}

	return &t, nil
}

// collectTasks drains rows into a slice, surfacing iteration errors.
func collectTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return tasks, nil
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
