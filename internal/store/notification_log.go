package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskward/taskward/internal/domain"
)

// NotificationLogEntry records that a notification of a given kind was sent
// for a task within a specific window. The (TaskID, Kind, WindowStart)
// triple is unique, which is what makes re-running a scan over the same
// window idempotent.
type NotificationLogEntry struct {
	ID          int64
	TaskID      int64
	Kind        string
	Recipient   domain.ActorRef
	WindowStart time.Time
	SentAt      time.Time
}

// NotificationLogStore persists the sent-notification log consulted by the
// deadline scanner for de-duplication.
type NotificationLogStore interface {
	// Record inserts a log entry. Returns ErrNotificationAlreadySent when an
	// entry for the same (task, kind, window start) already exists.
	Record(ctx context.Context, entry *NotificationLogEntry) error

	// WasSent reports whether a notification of the given kind has already
	// been recorded for the task within the window starting at windowStart.
	WasSent(ctx context.Context, taskID int64, kind string, windowStart time.Time) (bool, error)

	// WithTx returns a new NotificationLogStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) NotificationLogStore
}
