package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/taskward/taskward/internal/domain"
)

// Notification kind identifiers. The kind is part of the notification-log
// uniqueness key, so each kind dedups independently.
const (
	KindDue           = "due"
	KindOverdue       = "overdue"
	KindWeeklySummary = "weekly-summary"
)

// ErrDispatchSkipped marks the benign no-op outcomes of a dispatch attempt:
// the task was deleted, completed, or reassigned between scan and dispatch,
// or the recipient has no usable contact address. Skips are logged, never
// retried, and not counted as errors in batch summaries.
var ErrDispatchSkipped = errors.New("dispatch skipped")

// Notification represents a unit of outbound work to be delivered by the
// runner.
type Notification interface {
	// ID returns the notification's unique identifier
	ID() uuid.UUID

	// Kind returns the notification kind identifier
	Kind() string

	// TaskID returns the id of the task this notification is about;
	// zero for notifications that span tasks
	TaskID() int64

	// Recipient returns the actor this notification is addressed to,
	// as recorded at scan time
	Recipient() domain.ActorRef

	// Deliver performs the delivery. Returning an error wrapping
	// ErrDispatchSkipped means the notification is permanently moot;
	// any other error counts as a failed attempt and is retried.
	Deliver(ctx context.Context) error
}

// QueueReader provides read-only access to the notification channel,
// allowing workers to consume notifications without the ability to enqueue.
type QueueReader interface {
	// GetChannel returns a read-only channel for consuming notifications
	GetChannel() <-chan Notification
}

// QueueWriter provides write access to the notification queue,
// allowing the scanner to enqueue notifications for delivery.
type QueueWriter interface {
	// Enqueue adds a notification to the queue for delivery
	// Returns an error if the queue is full or closed
	Enqueue(n Notification) error

	// Close closes the queue, preventing further submission
	Close()
}

// EmailSender delivers a rendered notification to a recipient address.
// The production implementation is the external mail collaborator; tests
// and dry runs plug in their own.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}
