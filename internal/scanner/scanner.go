// Package scanner implements the periodic batch entry points: the deadline
// scan that selects tasks due within a window and enqueues reminders, the
// overdue sweep that escalates past-due tasks, and the weekly summary
// digest. Scans select and enqueue; delivery and its retry policy belong to
// the notify runner.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/taskward/taskward/internal/domain"
	"github.com/taskward/taskward/internal/notify"
	"github.com/taskward/taskward/internal/store"
)

// Summary reports the outcome of one batch run. Skips and per-task errors
// are counted, never propagated; a batch only fails as a whole when its
// selection query fails.
type Summary struct {
	Found    int
	Enqueued int
	Skipped  int
	Errored  int
}

func (s Summary) String() string {
	return fmt.Sprintf("found=%d enqueued=%d skipped=%d errored=%d",
		s.Found, s.Enqueued, s.Skipped, s.Errored)
}

// Table renders the summary as an aligned two-column table for terminal
// output. Logs use the one-line String form instead.
func (s Summary) Table() string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "found\t%d\n", s.Found)
	fmt.Fprintf(w, "enqueued\t%d\n", s.Enqueued)
	fmt.Fprintf(w, "skipped\t%d\n", s.Skipped)
	fmt.Fprintf(w, "errored\t%d\n", s.Errored)
	w.Flush()
	return buf.String()
}

// recipientSet restricts a batch to tasks assigned to one of its members.
// An empty set means no restriction.
type recipientSet map[domain.ActorRef]struct{}

func newRecipientSet(refs []domain.ActorRef) recipientSet {
	if len(refs) == 0 {
		return nil
	}
	set := make(recipientSet, len(refs))
	for _, ref := range refs {
		set[ref] = struct{}{}
	}
	return set
}

func (s recipientSet) excludes(ref domain.ActorRef) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[ref]
	return !ok
}

// DeadlineScanner selects tasks due within a look-ahead window and enqueues
// a due reminder for each.
type DeadlineScanner struct {
	tasks      store.TaskStore
	dispatcher *notify.Dispatcher
	queue      notify.QueueWriter
	sentLog    store.NotificationLogStore // nil disables the pre-enqueue dedup check
	only       recipientSet
	logger     *slog.Logger
}

// NewDeadlineScanner creates a DeadlineScanner. sentLog may be nil, in
// which case every scan enqueues reminders for all matching tasks and
// re-running a scan re-sends.
func NewDeadlineScanner(
	tasks store.TaskStore,
	dispatcher *notify.Dispatcher,
	queue notify.QueueWriter,
	sentLog store.NotificationLogStore,
	logger *slog.Logger,
) *DeadlineScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeadlineScanner{
		tasks:      tasks,
		dispatcher: dispatcher,
		queue:      queue,
		sentLog:    sentLog,
		logger:     logger.With(slog.String("component", "deadline_scanner")),
	}
}

// LimitRecipients restricts the scan to tasks assigned to one of the given
// actors. Tasks assigned to anyone else are counted as skipped. Calling
// with an empty slice removes the restriction.
func (s *DeadlineScanner) LimitRecipients(refs []domain.ActorRef) {
	s.only = newRecipientSet(refs)
}

// Scan selects live pending and in-progress tasks whose due date falls in
// the half-open window (now, now+window] and enqueues a due reminder for
// each. Tasks due exactly at now are excluded; tasks due exactly at
// now+window are included. force bypasses the sent-notification check, so
// already-notified tasks are enqueued again.
func (s *DeadlineScanner) Scan(ctx context.Context, now time.Time, window time.Duration, force bool) (Summary, error) {
	var summary Summary

	tasks, err := s.tasks.FindDueWithin(ctx, now, window, 0)
	if err != nil {
		return summary, fmt.Errorf("selecting due tasks: %w", err)
	}
	summary.Found = len(tasks)

	// The dedup key buckets time into fixed windows so that re-running the
	// scan within the same window finds the earlier run's log entries.
	windowStart := now.Truncate(window)

	for _, task := range tasks {
		log := s.logger.With(
			slog.Int64("task_id", task.ID),
			slog.Time("due_date", task.DueDate),
		)

		if s.only.excludes(task.Assignable) {
			log.Debug("task assignee outside the requested recipients")
			summary.Skipped++
			continue
		}

		if s.sentLog != nil && !force {
			sent, err := s.sentLog.WasSent(ctx, task.ID, notify.KindDue, windowStart)
			if err != nil {
				log.Error("failed to check notification log", slog.String("error", err.Error()))
				summary.Errored++
				continue
			}
			if sent {
				log.Debug("reminder already sent for this window")
				summary.Skipped++
				continue
			}
		}

		if err := s.queue.Enqueue(s.dispatcher.NewDueReminder(task, windowStart)); err != nil {
			log.Error("failed to enqueue reminder", slog.String("error", err.Error()))
			summary.Errored++
			continue
		}
		summary.Enqueued++
	}

	s.logger.Info("deadline scan complete",
		slog.Duration("window", window),
		slog.String("summary", summary.String()))
	return summary, nil
}

// OverdueSweeper escalates past-due tasks to the overdue status and
// enqueues an overdue notice for each escalated task.
type OverdueSweeper struct {
	tasks      store.TaskStore
	dispatcher *notify.Dispatcher
	queue      notify.QueueWriter
	only       recipientSet
	logger     *slog.Logger
}

// NewOverdueSweeper creates an OverdueSweeper.
func NewOverdueSweeper(
	tasks store.TaskStore,
	dispatcher *notify.Dispatcher,
	queue notify.QueueWriter,
	logger *slog.Logger,
) *OverdueSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &OverdueSweeper{
		tasks:      tasks,
		dispatcher: dispatcher,
		queue:      queue,
		logger:     logger.With(slog.String("component", "overdue_sweeper")),
	}
}

// LimitRecipients restricts notices to tasks assigned to one of the given
// actors. The status escalation itself always covers the whole backlog;
// only the resulting notices are narrowed, with the rest counted as
// skipped. Calling with an empty slice removes the restriction.
func (s *OverdueSweeper) LimitRecipients(refs []domain.ActorRef) {
	s.only = newRecipientSet(refs)
}

// Sweep marks every live pending or in-progress task with a past due date
// as overdue in one batch update, then enqueues an overdue notice for each
// affected task. Notices carry the task state as reloaded after the batch
// update, so their status check at dispatch time sees the overdue status.
func (s *OverdueSweeper) Sweep(ctx context.Context, now time.Time) (Summary, error) {
	var summary Summary

	ids, err := s.tasks.MarkOverdue(ctx, now)
	if err != nil {
		return summary, fmt.Errorf("marking overdue tasks: %w", err)
	}
	summary.Found = len(ids)

	windowStart := now.Truncate(24 * time.Hour)

	for _, id := range ids {
		task, err := s.tasks.GetByID(ctx, id, false)
		if err != nil {
			// Deleted between the batch update and the reload; nothing to
			// notify about.
			if store.IsNotFoundError(err) {
				summary.Skipped++
				continue
			}
			s.logger.Error("failed to reload overdue task",
				slog.Int64("task_id", id), slog.String("error", err.Error()))
			summary.Errored++
			continue
		}

		if s.only.excludes(task.Assignable) {
			summary.Skipped++
			continue
		}

		if err := s.queue.Enqueue(s.dispatcher.NewOverdueNotice(task, windowStart)); err != nil {
			s.logger.Error("failed to enqueue overdue notice",
				slog.Int64("task_id", id), slog.String("error", err.Error()))
			summary.Errored++
			continue
		}
		summary.Enqueued++
	}

	s.logger.Info("overdue sweep complete", slog.String("summary", summary.String()))
	return summary, nil
}

// SummaryBuilder assembles weekly digests of open tasks per recipient.
type SummaryBuilder struct {
	tasks      store.TaskStore
	dispatcher *notify.Dispatcher
	queue      notify.QueueWriter
	logger     *slog.Logger
}

// NewSummaryBuilder creates a SummaryBuilder.
func NewSummaryBuilder(
	tasks store.TaskStore,
	dispatcher *notify.Dispatcher,
	queue notify.QueueWriter,
	logger *slog.Logger,
) *SummaryBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryBuilder{
		tasks:      tasks,
		dispatcher: dispatcher,
		queue:      queue,
		logger:     logger.With(slog.String("component", "summary_builder")),
	}
}

// Build enqueues one weekly summary per recipient, covering the
// recipient's live, not-yet-completed tasks sorted by due date. Recipients
// with no open tasks are skipped rather than sent an empty digest.
func (s *SummaryBuilder) Build(ctx context.Context, recipients []domain.ActorRef) (Summary, error) {
	var summary Summary
	summary.Found = len(recipients)

	for _, recipient := range recipients {
		open, err := s.openTasksFor(ctx, recipient)
		if err != nil {
			s.logger.Error("failed to list open tasks",
				slog.String("recipient", recipient.String()),
				slog.String("error", err.Error()))
			summary.Errored++
			continue
		}
		if len(open) == 0 {
			summary.Skipped++
			continue
		}

		if err := s.queue.Enqueue(s.dispatcher.NewWeeklySummary(recipient, open)); err != nil {
			s.logger.Error("failed to enqueue weekly summary",
				slog.String("recipient", recipient.String()),
				slog.String("error", err.Error()))
			summary.Errored++
			continue
		}
		summary.Enqueued++
	}

	s.logger.Info("weekly summary build complete", slog.String("summary", summary.String()))
	return summary, nil
}

func (s *SummaryBuilder) openTasksFor(ctx context.Context, recipient domain.ActorRef) ([]*domain.Task, error) {
	tasks, err := s.tasks.List(ctx, store.TaskFilter{
		Assignable: &recipient,
		SortBy:     "due_date",
		SortDir:    store.SortAsc,
	})
	if err != nil {
		return nil, err
	}

	open := tasks[:0]
	for _, task := range tasks {
		if task.Status != domain.TaskStatusCompleted {
			open = append(open, task)
		}
	}
	return open, nil
}
