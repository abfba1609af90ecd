package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/taskward/taskward/internal/domain"
	"github.com/taskward/taskward/internal/store"
)

// PostgresAdminStore implements the store.AdminStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAdminStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAdminStore creates a new PostgreSQL implementation of the AdminStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAdminStore(db store.DBTX, logger *slog.Logger) *PostgresAdminStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAdminStore{
		db:     db,
		logger: logger.With(slog.String("component", "admin_store")),
	}
}

// Ensure PostgresAdminStore implements store.AdminStore interface
var _ store.AdminStore = (*PostgresAdminStore)(nil)

// WithTx implements store.AdminStore.WithTx
func (s *PostgresAdminStore) WithTx(tx *sql.Tx) store.AdminStore {
	return &PostgresAdminStore{db: tx, logger: s.logger}
}

// Create implements store.AdminStore.Create
func (s *PostgresAdminStore) Create(ctx context.Context, admin *domain.Admin) error {
	if err := admin.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO admins (name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		admin.Name, admin.Email, admin.CreatedAt, admin.UpdatedAt,
	).Scan(&admin.ID)
	if err != nil {
		return MapError(err)
	}
	return nil
}

// GetByID implements store.AdminStore.GetByID
func (s *PostgresAdminStore) GetByID(ctx context.Context, id int64) (*domain.Admin, error) {
	query := `SELECT id, name, email, created_at, updated_at FROM admins WHERE id = $1`

	var admin domain.Admin
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&admin.ID, &admin.Name, &admin.Email, &admin.CreatedAt, &admin.UpdatedAt,
	)
	if err != nil {
		if IsNotFound(err) {
			return nil, store.ErrAdminNotFound
		}
		return nil, MapError(err)
	}
	return &admin, nil
}
