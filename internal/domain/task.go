package domain

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// TaskPriority represents the urgency of a task.
type TaskPriority int

// Possible task priority values, lowest first.
const (
	TaskPriorityLow      TaskPriority = 0
	TaskPriorityMedium   TaskPriority = 1
	TaskPriorityHigh     TaskPriority = 2
	TaskPriorityCritical TaskPriority = 3
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus int

// Possible task status values.
const (
	TaskStatusPending    TaskStatus = 0
	TaskStatusInProgress TaskStatus = 1
	TaskStatusCompleted  TaskStatus = 2
	TaskStatusOverdue    TaskStatus = 3
)

// MaxTitleLength is the maximum number of code points allowed in a task title.
const MaxTitleLength = 255

// Task-specific validation errors
var (
	// ErrTaskTitleEmpty is returned when a task title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskTitleTooLong is returned when a task title exceeds MaxTitleLength
	// code points.
	ErrTaskTitleTooLong = errors.New("task title cannot exceed 255 characters")

	// ErrTaskDueDateNotFuture is returned when a task's due date is not
	// strictly after today.
	ErrTaskDueDateNotFuture = errors.New("task due date must be after today")

	// ErrCompletionRequiresProgress is returned when a status change attempts
	// to enter COMPLETED from any state other than IN_PROGRESS.
	ErrCompletionRequiresProgress = errors.New(
		"completion requires in-progress: only an in-progress task can be completed")
)

// String returns the lowercase name of the priority, used in logs and output.
func (p TaskPriority) String() string {
	switch p {
	case TaskPriorityLow:
		return "low"
	case TaskPriorityMedium:
		return "medium"
	case TaskPriorityHigh:
		return "high"
	case TaskPriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// IsValid checks if the priority is one of the defined values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical:
		return true
	default:
		return false
	}
}

// String returns the lowercase name of the status, used in logs and output.
func (s TaskStatus) String() string {
	switch s {
	case TaskStatusPending:
		return "pending"
	case TaskStatusInProgress:
		return "in_progress"
	case TaskStatusCompleted:
		return "completed"
	case TaskStatusOverdue:
		return "overdue"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// IsValid checks if the status is one of the defined values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusOverdue:
		return true
	default:
		return false
	}
}

// NotifyEligible reports whether a task in this status is still a candidate
// for due-date reminders: only pending and in-progress tasks qualify.
func (s TaskStatus) NotifyEligible() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

// CanTransitionTo validates a status change from s to next. Entry into
// COMPLETED is only allowed from IN_PROGRESS; every other assignment is
// unconditionally accepted. The machine is deliberately permissive beyond
// the completion guard (COMPLETED -> PENDING is legal, for example).
func (s TaskStatus) CanTransitionTo(next TaskStatus) error {
	if !next.IsValid() {
		return ErrInvalidStatus
	}
	if next == TaskStatusCompleted && s != TaskStatusInProgress {
		return ErrCompletionRequiresProgress
	}
	return nil
}

// Task represents a unit of work assigned to an actor, with a due date and
// a lifecycle status. Assignable, Creator and Updater are polymorphic actor
// references; Creator is immutable after creation and Updater tracks the
// most recent successful mutation.
type Task struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueDate     time.Time    `json:"due_date"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	Assignable  ActorRef     `json:"assignable"`
	Creator     ActorRef     `json:"creator"`
	Updater     ActorRef     `json:"updater"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty"`
}

// NewTask creates a new Task assigned to assignable, created by creator.
// The creator also becomes the initial updater. Status defaults to pending
// and priority to low when left at zero values.
// Returns an error if validation fails, including the due date not being
// strictly after today.
func NewTask(
	title, description string,
	dueDate time.Time,
	priority TaskPriority,
	assignable, creator ActorRef,
) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Priority:    priority,
		Status:      TaskStatusPending,
		Assignable:  assignable,
		Creator:     creator,
		Updater:     creator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateDueDate(dueDate, now); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation. The due date's
// strictly-after-today rule is NOT checked here; it applies only at
// create/update time and is enforced by ValidateDueDate at those call sites.
func (t *Task) Validate() error {
	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return ErrTaskTitleTooLong
	}

	if t.DueDate.IsZero() {
		return ErrTaskDueDateNotFuture
	}

	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}

	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}

	if err := t.Assignable.Validate(); err != nil {
		return fmt.Errorf("assignable: %w", err)
	}

	if err := t.Creator.Validate(); err != nil {
		return fmt.Errorf("creator: %w", err)
	}

	if err := t.Updater.Validate(); err != nil {
		return fmt.Errorf("updater: %w", err)
	}

	return nil
}

// IsDeleted reports whether the task has been soft-deleted.
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

// IsOwnedBy reports whether actor may mutate the task: the actor must match
// either the assignable or the creator reference.
func (t *Task) IsOwnedBy(actor ActorRef) bool {
	return t.Assignable.Equals(actor) || t.Creator.Equals(actor)
}

// ChangeStatus applies a status transition under the completion rule and
// records the acting actor as updater. Returns ErrCompletionRequiresProgress
// when entering COMPLETED from any state other than IN_PROGRESS.
func (t *Task) ChangeStatus(next TaskStatus, actor ActorRef) error {
	if err := t.Status.CanTransitionTo(next); err != nil {
		return err
	}

	t.Status = next
	t.Updater = actor
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// ValidateDueDate checks the create/update-time rule that a due date falls
// strictly after "today" relative to now: any time on the current calendar
// day or earlier is rejected.
func ValidateDueDate(dueDate, now time.Time) error {
	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	if !dueDate.After(endOfToday) {
		return ErrTaskDueDateNotFuture
	}
	return nil
}
