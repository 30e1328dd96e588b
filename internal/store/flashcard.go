package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/rotelab/rote-api/internal/domain"
)

// DueQuery describes a query for flashcards that are due for review.
// SubjectID narrows the query to a single subject when non-nil.
// Limit caps the number of cards returned; implementations apply a
// default when it is zero or negative.
type DueQuery struct {
	UserID    uuid.UUID
	SubjectID *uuid.UUID
	Before    time.Time
	Limit     int
}

// FlashcardStore defines the interface for flashcard data persistence.
type FlashcardStore interface {
	// Create saves a single flashcard to the store.
	// Returns validation errors from the domain if the card data is invalid.
	Create(ctx context.Context, card *domain.Flashcard) error

	// CreateMultiple saves multiple flashcards to the store.
	// This method MUST be run within a transaction for atomicity: use
	// WithTx together with store.RunInTransaction. Calling it outside a
	// transaction may result in partial insertion on failure.
	CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error

	// GetByID retrieves a flashcard by its unique ID. Soft-deleted cards
	// are treated as absent.
	// Returns ErrFlashcardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error)

	// GetBySubject retrieves all active flashcards belonging to a subject.
	GetBySubject(ctx context.Context, subjectID uuid.UUID) ([]*domain.Flashcard, error)

	// GetByUser retrieves all active flashcards owned by a user.
	GetByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Flashcard, error)

	// GetDue retrieves active flashcards whose next review time is at or
	// before q.Before, ordered by next review time ascending (most overdue
	// first), then by creation time for a stable order.
	GetDue(ctx context.Context, q DueQuery) ([]*domain.Flashcard, error)

	// CountDue returns the number of active flashcards due at or before
	// the given time, optionally narrowed to one subject.
	CountDue(ctx context.Context, userID uuid.UUID, subjectID *uuid.UUID, before time.Time) (int, error)

	// UpdateReviewState persists a card's review bookkeeping (stats and
	// scheduling data) after a review. Other card fields are not touched.
	// Returns ErrFlashcardNotFound if the card does not exist.
	UpdateReviewState(ctx context.Context, card *domain.Flashcard) error

	// Delete soft-deletes a flashcard so it no longer appears in queries
	// but remains recoverable.
	// Returns ErrFlashcardNotFound if the card does not exist or has
	// already been deleted.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new FlashcardStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) FlashcardStore
}
