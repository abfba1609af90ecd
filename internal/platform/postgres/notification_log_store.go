package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/taskward/taskward/internal/platform/logger"
	"github.com/taskward/taskward/internal/store"
)

// PostgresNotificationLogStore implements store.NotificationLogStore.
// The notification_log table carries a unique constraint on
// (task_id, kind, window_start); Record relies on it to turn concurrent
// double-sends into ErrNotificationAlreadySent.
type PostgresNotificationLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationLogStore creates a new PostgreSQL implementation of
// the NotificationLogStore interface.
func NewPostgresNotificationLogStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_log_store")),
	}
}

// Ensure PostgresNotificationLogStore implements store.NotificationLogStore interface
var _ store.NotificationLogStore = (*PostgresNotificationLogStore)(nil)

// WithTx implements store.NotificationLogStore.WithTx
func (s *PostgresNotificationLogStore) WithTx(tx *sql.Tx) store.NotificationLogStore {
	return &PostgresNotificationLogStore{db: tx, logger: s.logger}
}

// Record implements store.NotificationLogStore.Record
func (s *PostgresNotificationLogStore) Record(ctx context.Context, entry *store.NotificationLogEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO notification_log
			(task_id, kind, recipient_kind, recipient_id, window_start, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		entry.TaskID,
		entry.Kind,
		string(entry.Recipient.Kind),
		entry.Recipient.ID,
		entry.WindowStart,
		entry.SentAt,
	).Scan(&entry.ID)

	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrNotificationAlreadySent
		}
		log.Error("failed to record notification",
			slog.String("error", err.Error()),
			slog.Int64("task_id", entry.TaskID),
			slog.String("kind", entry.Kind))
		return MapError(err)
	}
	return nil
}

// WasSent implements store.NotificationLogStore.WasSent
func (s *PostgresNotificationLogStore) WasSent(
	ctx context.Context,
	taskID int64,
	kind string,
	windowStart time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notification_log
			WHERE task_id = $1 AND kind = $2 AND window_start = $3
		)
	`
	var sent bool
	if err := s.db.QueryRowContext(ctx, query, taskID, kind, windowStart).Scan(&sent); err != nil {
		return false, MapError(err)
	}
	return sent, nil
}
