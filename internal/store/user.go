package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/rotelab/rote-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store. The user's plaintext Password
	// is hashed before storage and never persisted.
	// Returns ErrEmailExists if a user with the same email already exists.
	// Returns validation errors from the domain if the user data is invalid.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user's details. If the Password field is
	// non-empty it is re-hashed and replaces the stored hash.
	// Returns ErrUserNotFound if the user does not exist.
	// Returns ErrEmailExists if changing the email to one already in use.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store by their ID. Associated subjects
	// and flashcards are removed by database-level cascade deletes.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new UserStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller,
	// typically via RunInTransaction.
	WithTx(tx *sql.Tx) UserStore
}
