package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/rotelab/rote-api/internal/domain"
)

// SubjectStore defines the interface for subject data persistence.
type SubjectStore interface {
	// Create saves a new subject to the store.
	// Returns validation errors from the domain if the subject data is invalid.
	Create(ctx context.Context, subject *domain.Subject) error

	// GetByID retrieves a subject by its unique ID.
	// Returns ErrSubjectNotFound if the subject does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error)

	// GetByUser retrieves all subjects owned by the given user, most
	// recently created first.
	GetByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Subject, error)

	// GetByStatus retrieves all subjects in the given generation status,
	// oldest first. Used on startup to recover interrupted generation work.
	GetByStatus(ctx context.Context, status domain.GenerationStatus) ([]*domain.Subject, error)

	// Update modifies an existing subject, including its generation status
	// and study plan.
	// Returns ErrSubjectNotFound if the subject does not exist.
	Update(ctx context.Context, subject *domain.Subject) error

	// UpdateStatus transitions a subject's generation status. This is used
	// by background tasks to record progress without rewriting the whole row.
	// Returns ErrSubjectNotFound if the subject does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GenerationStatus) error

	// Delete removes a subject from the store by its ID. Associated
	// flashcards are removed by database-level cascade deletes.
	// Returns ErrSubjectNotFound if the subject does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new SubjectStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) SubjectStore
}
