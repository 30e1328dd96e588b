// Package study manages subjects: creating them from a syllabus, kicking
// off background content generation, and listing the resulting flashcards.
package study

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rotelab/rote-api/internal/domain"
)

// GenerationEnqueuer schedules background content generation for a subject.
// The task runner provides the production implementation.
type GenerationEnqueuer interface {
	// EnqueueGeneration submits a subject for asynchronous flashcard and
	// study-plan generation. It returns once the work is queued, not when
	// it completes.
	EnqueueGeneration(ctx context.Context, subjectID uuid.UUID) error
}

// StudyService provides subject management operations.
type StudyService interface {
	// CreateSubject creates a subject in the pending state and queues
	// content generation for its syllabus.
	CreateSubject(ctx context.Context, userID uuid.UUID, name, syllabus string) (*domain.Subject, error)

	// GetSubject returns a subject after verifying ownership.
	// Returns ErrSubjectNotFound or ErrSubjectNotOwned accordingly.
	GetSubject(ctx context.Context, userID, subjectID uuid.UUID) (*domain.Subject, error)

	// ListSubjects returns all of the user's subjects, newest first.
	ListSubjects(ctx context.Context, userID uuid.UUID) ([]*domain.Subject, error)

	// ListCards returns the active flashcards of a subject after
	// verifying ownership.
	ListCards(ctx context.Context, userID, subjectID uuid.UUID) ([]*domain.Flashcard, error)

	// DeleteSubject removes a subject and, through cascade deletes, its
	// flashcards. Ownership is verified first.
	DeleteSubject(ctx context.Context, userID, subjectID uuid.UUID) error
}

// Common error types for StudyService
var (
	// ErrSubjectNotFound indicates that the subject does not exist.
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrSubjectNotOwned indicates that the user does not own the subject.
	ErrSubjectNotOwned = errors.New("unauthorized access: subject not owned by user")
)

// ServiceError wraps errors from the study service with operation context.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
