package store

import (
	"context"
	"database/sql"

	"github.com/taskward/taskward/internal/domain"
)

// UserStore defines the interface for user data persistence.
// The core only needs enough of it to resolve an actor reference to a
// contact address; account management proper lives outside this module.
type UserStore interface {
	// Create saves a new user to the store and fills in its assigned ID.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}

// AdminStore defines the interface for admin data persistence.
type AdminStore interface {
	// Create saves a new admin to the store and fills in its assigned ID.
	Create(ctx context.Context, admin *domain.Admin) error

	// GetByID retrieves an admin by their unique ID.
	// Returns ErrAdminNotFound if the admin does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Admin, error)

	// WithTx returns a new AdminStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AdminStore
}
