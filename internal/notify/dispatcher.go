package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskward/taskward/internal/domain"
	"github.com/taskward/taskward/internal/store"
)

// Dispatcher builds dispatch jobs for the notification runner. Each job
// revalidates its task at delivery time, so a task completed, deleted or
// reassigned between scan and dispatch turns into a logged skip instead of
// a stale reminder.
type Dispatcher struct {
	tasks    store.TaskStore
	resolver *ActorResolver
	sender   EmailSender
	sentLog  store.NotificationLogStore // nil disables dedup recording
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. sentLog may be nil, in which case
// deliveries are not recorded and re-scans of the same window re-send.
func NewDispatcher(
	tasks store.TaskStore,
	resolver *ActorResolver,
	sender EmailSender,
	sentLog store.NotificationLogStore,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		tasks:    tasks,
		resolver: resolver,
		sender:   sender,
		sentLog:  sentLog,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
}

// NewDueReminder creates a due-date reminder for the task, addressed to its
// assignable actor as recorded at scan time.
func (d *Dispatcher) NewDueReminder(task *domain.Task, windowStart time.Time) Notification {
	return &taskNotification{
		id:          uuid.New(),
		kind:        KindDue,
		task:        task,
		recipient:   task.Assignable,
		windowStart: windowStart,
		d:           d,
	}
}

// NewOverdueNotice creates an overdue notice for a task the sweep just
// escalated.
func (d *Dispatcher) NewOverdueNotice(task *domain.Task, windowStart time.Time) Notification {
	return &taskNotification{
		id:          uuid.New(),
		kind:        KindOverdue,
		task:        task,
		recipient:   task.Assignable,
		windowStart: windowStart,
		d:           d,
	}
}

// NewWeeklySummary creates a digest of the recipient's open tasks.
func (d *Dispatcher) NewWeeklySummary(recipient domain.ActorRef, tasks []*domain.Task) Notification {
	return &summaryNotification{
		id:        uuid.New(),
		recipient: recipient,
		tasks:     tasks,
		d:         d,
	}
}

// taskNotification is a per-task reminder (due or overdue).
type taskNotification struct {
	id          uuid.UUID
	kind        string
	task        *domain.Task
	recipient   domain.ActorRef
	windowStart time.Time
	d           *Dispatcher
}

var _ Notification = (*taskNotification)(nil)

func (n *taskNotification) ID() uuid.UUID { return n.id }

func (n *taskNotification) Kind() string { return n.kind }

func (n *taskNotification) TaskID() int64 { return n.task.ID }

func (n *taskNotification) Recipient() domain.ActorRef { return n.recipient }

// Deliver revalidates the task, resolves the recipient and sends the
// reminder. Validation failures are skips, not errors; only the actual send
// can fail in a retryable way.
func (n *taskNotification) Deliver(ctx context.Context) error {
	log := n.d.logger.With(
		slog.Int64("task_id", n.task.ID),
		slog.String("kind", n.kind),
		slog.String("recipient", n.recipient.String()),
	)

	// Re-check everything at dispatch time, not just at selection time:
	// the task may have changed while queued.
	task, err := n.d.tasks.GetByID(ctx, n.task.ID, false)
	if err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("%w: task no longer exists", ErrDispatchSkipped)
		}
		return err
	}

	if !n.statusEligible(task.Status) {
		return fmt.Errorf("%w: task status is now %s", ErrDispatchSkipped, task.Status)
	}

	// A reassignment between scan and dispatch makes the queued recipient
	// stale; skip rather than notify the wrong actor.
	if !task.Assignable.Equals(n.recipient) {
		return fmt.Errorf("%w: task reassigned from %s to %s",
			ErrDispatchSkipped, n.recipient, task.Assignable)
	}

	contact, err := n.d.resolver.Resolve(ctx, task.Assignable)
	if err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("%w: assignable %s no longer exists", ErrDispatchSkipped, task.Assignable)
		}
		return err
	}
	if contact.Email == "" {
		return fmt.Errorf("%w: assignable %s has no contact address", ErrDispatchSkipped, task.Assignable)
	}

	subject, body := n.render(task, contact)
	if err := n.d.sender.Send(ctx, contact.Email, subject, body); err != nil {
		return err
	}

	if n.d.sentLog != nil {
		recordErr := n.d.sentLog.Record(ctx, &store.NotificationLogEntry{
			TaskID:      task.ID,
			Kind:        n.kind,
			Recipient:   n.recipient,
			WindowStart: n.windowStart,
			SentAt:      time.Now().UTC(),
		})
		if recordErr != nil && !store.IsDuplicateError(recordErr) {
			// The reminder went out; a logging failure must not trigger a
			// retry and a duplicate send.
			log.Error("failed to record sent notification",
				slog.String("error", recordErr.Error()))
		}
	}

	log.Info("reminder sent", slog.String("email", contact.Email))
	return nil
}

func (n *taskNotification) statusEligible(status domain.TaskStatus) bool {
	if n.kind == KindOverdue {
		return status == domain.TaskStatusOverdue
	}
	return status.NotifyEligible()
}

func (n *taskNotification) render(task *domain.Task, contact *Contact) (subject, body string) {
	switch n.kind {
	case KindOverdue:
		subject = fmt.Sprintf("Task overdue: %s", task.Title)
		body = fmt.Sprintf("Hi %s,\n\nthe task %q was due on %s and is now overdue.\n",
			contact.Name, task.Title, task.DueDate.Format("2006-01-02"))
	default:
		subject = fmt.Sprintf("Task due soon: %s", task.Title)
		body = fmt.Sprintf("Hi %s,\n\nthe task %q is due on %s.\n",
			contact.Name, task.Title, task.DueDate.Format("2006-01-02 15:04"))
	}
	return subject, body
}

// summaryNotification is a per-recipient digest of open tasks.
type summaryNotification struct {
	id        uuid.UUID
	recipient domain.ActorRef
	tasks     []*domain.Task
	d         *Dispatcher
}

var _ Notification = (*summaryNotification)(nil)

func (n *summaryNotification) ID() uuid.UUID { return n.id }

func (n *summaryNotification) Kind() string { return KindWeeklySummary }

// TaskID returns 0: a summary spans tasks and is keyed per recipient.
func (n *summaryNotification) TaskID() int64 { return 0 }

func (n *summaryNotification) Recipient() domain.ActorRef { return n.recipient }

func (n *summaryNotification) Deliver(ctx context.Context) error {
	contact, err := n.d.resolver.Resolve(ctx, n.recipient)
	if err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("%w: recipient %s no longer exists", ErrDispatchSkipped, n.recipient)
		}
		return err
	}
	if contact.Email == "" {
		return fmt.Errorf("%w: recipient %s has no contact address", ErrDispatchSkipped, n.recipient)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nyou have %d open task(s):\n\n", contact.Name, len(n.tasks))
	for _, task := range n.tasks {
		fmt.Fprintf(&b, "  - [%s] %s (due %s)\n",
			task.Status, task.Title, task.DueDate.Format("2006-01-02"))
	}

	subject := fmt.Sprintf("Weekly summary: %d open task(s)", len(n.tasks))
	if err := n.d.sender.Send(ctx, contact.Email, subject, b.String()); err != nil {
		return err
	}

	n.d.logger.Info("weekly summary sent",
		slog.String("recipient", n.recipient.String()),
		slog.String("email", contact.Email),
		slog.Int("task_count", len(n.tasks)))
	return nil
}
