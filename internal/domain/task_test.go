package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func tomorrow() time.Time {
	return time.Now().UTC().Add(36 * time.Hour)
}

func TestNewTask(t *testing.T) {
	t.Parallel()

	assignable := ActorRef{Kind: ActorKindUser, ID: 7}
	creator := ActorRef{Kind: ActorKindAdmin, ID: 3}

	task, err := NewTask("Ship the report", "quarterly numbers", tomorrow(), TaskPriorityLow, assignable, creator)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.Status != TaskStatusPending {
		t.Errorf("Expected status %s, got %s", TaskStatusPending, task.Status)
	}
	if task.Priority != TaskPriorityLow {
		t.Errorf("Expected priority %s, got %s", TaskPriorityLow, task.Priority)
	}
	if !task.Creator.Equals(creator) {
		t.Errorf("Expected creator %s, got %s", creator, task.Creator)
	}
	if !task.Updater.Equals(creator) {
		t.Errorf("Expected updater to default to creator %s, got %s", creator, task.Updater)
	}
	if !task.Assignable.Equals(assignable) {
		t.Errorf("Expected assignable %s, got %s", assignable, task.Assignable)
	}
	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Error("Expected non-zero timestamps")
	}
	if task.IsDeleted() {
		t.Error("Expected new task not to be soft-deleted")
	}
}

func TestNewTaskValidation(t *testing.T) {
	t.Parallel()

	assignable := ActorRef{Kind: ActorKindUser, ID: 7}
	creator := ActorRef{Kind: ActorKindAdmin, ID: 3}

	_, err := NewTask("", "", tomorrow(), TaskPriorityLow, assignable, creator)
	if !errors.Is(err, ErrTaskTitleEmpty) {
		t.Errorf("Expected ErrTaskTitleEmpty, got %v", err)
	}

	longTitle := strings.Repeat("x", MaxTitleLength+1)
	_, err = NewTask(longTitle, "", tomorrow(), TaskPriorityLow, assignable, creator)
	if !errors.Is(err, ErrTaskTitleTooLong) {
		t.Errorf("Expected ErrTaskTitleTooLong, got %v", err)
	}

	// Limit counts code points, not bytes.
	multibyte := strings.Repeat("ü", MaxTitleLength)
	if _, err := NewTask(multibyte, "", tomorrow(), TaskPriorityLow, assignable, creator); err != nil {
		t.Errorf("Expected 255 multibyte code points to be accepted, got %v", err)
	}

	_, err = NewTask("title", "", time.Now().UTC(), TaskPriorityLow, assignable, creator)
	if !errors.Is(err, ErrTaskDueDateNotFuture) {
		t.Errorf("Expected ErrTaskDueDateNotFuture for a due date today, got %v", err)
	}

	_, err = NewTask("title", "", time.Now().UTC().Add(-48*time.Hour), TaskPriorityLow, assignable, creator)
	if !errors.Is(err, ErrTaskDueDateNotFuture) {
		t.Errorf("Expected ErrTaskDueDateNotFuture for a past due date, got %v", err)
	}

	_, err = NewTask("title", "", tomorrow(), TaskPriority(9), assignable, creator)
	if !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("Expected ErrInvalidPriority, got %v", err)
	}

	_, err = NewTask("title", "", tomorrow(), TaskPriorityLow, ActorRef{Kind: "ghost", ID: 1}, creator)
	if !errors.Is(err, ErrInvalidActorKind) {
		t.Errorf("Expected ErrInvalidActorKind for bad assignable, got %v", err)
	}
}

func TestCanTransitionTo(t *testing.T) {
	t.Parallel()

	// Entry into COMPLETED only from IN_PROGRESS.
	if err := TaskStatusInProgress.CanTransitionTo(TaskStatusCompleted); err != nil {
		t.Errorf("Expected in_progress -> completed to be allowed, got %v", err)
	}
	for _, from := range []TaskStatus{TaskStatusPending, TaskStatusOverdue, TaskStatusCompleted} {
		err := from.CanTransitionTo(TaskStatusCompleted)
		if !errors.Is(err, ErrCompletionRequiresProgress) {
			t.Errorf("Expected ErrCompletionRequiresProgress from %s, got %v", from, err)
		}
	}

	// Every other assignment is unrestricted, including completed -> pending.
	for _, from := range []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusOverdue} {
		for _, to := range []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusOverdue} {
			if err := from.CanTransitionTo(to); err != nil {
				t.Errorf("Expected %s -> %s to be allowed, got %v", from, to, err)
			}
		}
	}

	if err := TaskStatusPending.CanTransitionTo(TaskStatus(42)); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected ErrInvalidStatus, got %v", err)
	}
}

func TestChangeStatus(t *testing.T) {
	t.Parallel()

	assignable := ActorRef{Kind: ActorKindUser, ID: 7}
	creator := ActorRef{Kind: ActorKindAdmin, ID: 3}
	task, err := NewTask("title", "", tomorrow(), TaskPriorityHigh, assignable, creator)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	err = task.ChangeStatus(TaskStatusCompleted, assignable)
	if !errors.Is(err, ErrCompletionRequiresProgress) {
		t.Fatalf("Expected ErrCompletionRequiresProgress from pending, got %v", err)
	}
	if task.Status != TaskStatusPending {
		t.Errorf("Expected status to remain pending after rejected transition, got %s", task.Status)
	}

	if err := task.ChangeStatus(TaskStatusInProgress, assignable); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := task.ChangeStatus(TaskStatusCompleted, assignable); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.Status != TaskStatusCompleted {
		t.Errorf("Expected status completed, got %s", task.Status)
	}
	if !task.Updater.Equals(assignable) {
		t.Errorf("Expected updater %s, got %s", assignable, task.Updater)
	}
}

func TestIsOwnedBy(t *testing.T) {
	t.Parallel()

	assignable := ActorRef{Kind: ActorKindUser, ID: 7}
	creator := ActorRef{Kind: ActorKindAdmin, ID: 3}
	task, err := NewTask("title", "", tomorrow(), TaskPriorityLow, assignable, creator)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !task.IsOwnedBy(assignable) {
		t.Error("Expected assignable to own the task")
	}
	if !task.IsOwnedBy(creator) {
		t.Error("Expected creator to own the task")
	}
	if task.IsOwnedBy(ActorRef{Kind: ActorKindUser, ID: 99}) {
		t.Error("Expected unrelated actor not to own the task")
	}
	if task.IsOwnedBy(ActorRef{Kind: ActorKindAdmin, ID: 7}) {
		t.Error("Expected admin with the assignable's user ID not to own the task")
	}
}

func TestNotifyEligible(t *testing.T) {
	t.Parallel()

	if !TaskStatusPending.NotifyEligible() || !TaskStatusInProgress.NotifyEligible() {
		t.Error("Expected pending and in_progress to be notify-eligible")
	}
	if TaskStatusCompleted.NotifyEligible() || TaskStatusOverdue.NotifyEligible() {
		t.Error("Expected completed and overdue not to be notify-eligible")
	}
}
