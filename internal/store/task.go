package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskward/taskward/internal/domain"
)

// Sort directions accepted by TaskFilter.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// TaskFilter describes a composable conjunctive query over tasks.
// Every field is optional; zero values mean "no constraint".
type TaskFilter struct {
	// Search matches case-insensitively against title and description.
	Search string

	// Status filters on exact status equality.
	Status *domain.TaskStatus

	// DueAfter/DueBefore bound the due date (inclusive on both ends).
	DueAfter  *time.Time
	DueBefore *time.Time

	// Assignable/Creator/Updater filter on exact actor-reference equality.
	Assignable *domain.ActorRef
	Creator    *domain.ActorRef
	Updater    *domain.ActorRef

	// IncludeDeleted widens the result to soft-deleted rows as well.
	// OnlyDeleted restricts the result to soft-deleted rows ("trashed").
	// Soft-deleted rows are excluded unless one of these is set, and the
	// flag is explicit at every call site rather than an implicit scope.
	IncludeDeleted bool
	OnlyDeleted    bool

	// SortBy names a whitelisted column; unknown or empty values fall back
	// to created_at. SortDir is SortAsc or SortDesc (default SortDesc).
	SortBy  string
	SortDir string

	// Limit/Offset paginate the result. Limit 0 means no limit.
	Limit  int
	Offset int
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store and fills in its assigned ID.
	// The task must already be valid according to domain validation rules.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID with no ownership filter.
	// Soft-deleted tasks are only visible when includeDeleted is set.
	// Returns ErrTaskNotFound if no matching task exists.
	GetByID(ctx context.Context, id int64, includeDeleted bool) (*domain.Task, error)

	// GetOwned retrieves a live (non-deleted) task by ID, scoped to the
	// acting actor: the row must have actor as its assignable or creator.
	// A task that exists but is not owned by actor is indistinguishable from
	// a nonexistent one; both return ErrTaskNotFound.
	GetOwned(ctx context.Context, id int64, actor domain.ActorRef) (*domain.Task, error)

	// Update writes all mutable fields of a live task back to the store.
	// Returns ErrTaskNotFound if the task does not exist or is soft-deleted.
	Update(ctx context.Context, task *domain.Task) error

	// SoftDelete marks a live task deleted. Deletion is creator-only: the
	// row must have actor as its creator (assignable is not sufficient).
	// Returns ErrTaskNotFound when no matching row exists.
	SoftDelete(ctx context.Context, id int64, actor domain.ActorRef) error

	// Restore clears the deleted marker on a trashed task. It applies no
	// ownership filter; callers are expected to have scoped the ID already.
	// Returns ErrTaskNotFound if the task does not exist or is not trashed.
	Restore(ctx context.Context, id int64) error

	// ForceDelete permanently removes a trashed task.
	// Returns ErrTaskNotFound if the task does not exist or is not trashed.
	ForceDelete(ctx context.Context, id int64) error

	// List returns tasks matching the filter, applying the filter's sort
	// and pagination.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// FindDueWithin returns live tasks in a notify-eligible status
	// (pending or in progress) whose due date falls in the half-open
	// window (now, now+window]. limit 0 means no cap.
	FindDueWithin(ctx context.Context, now time.Time, window time.Duration, limit int) ([]*domain.Task, error)

	// MarkOverdue transitions every live pending/in-progress task whose due
	// date has passed to the overdue status in one batch update, with no
	// per-row ownership check. Returns the IDs of the affected tasks.
	MarkOverdue(ctx context.Context, now time.Time) ([]int64, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) TaskStore
}
