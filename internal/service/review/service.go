// Package review implements the study-session side of the application:
// submitting flashcard reviews, listing due cards, and dashboard aggregates.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rotelab/rote-api/internal/domain"
)

// ReviewRequest carries a user's answer for a single flashcard review.
type ReviewRequest struct {
	// Quality is the recall grade on the 0-5 scale: 0-2 is a failed
	// recall, 3-5 a successful one.
	Quality int `json:"quality"`

	// ResponseTimeSeconds is how long the answer took, when the client
	// measured it. Nil when not reported.
	ResponseTimeSeconds *float64 `json:"response_time_seconds,omitempty"`
}

// DashboardSubject summarizes one subject's cards for the dashboard.
type DashboardSubject struct {
	SubjectID          uuid.UUID               `json:"subject_id"`
	Name               string                  `json:"name"`
	Status             domain.GenerationStatus `json:"status"`
	TotalCards         int                     `json:"total_cards"`
	DueCards           int                     `json:"due_cards"`
	AverageSuccessRate int                     `json:"average_success_rate"`
}

// Dashboard aggregates a user's study state across all subjects.
type Dashboard struct {
	TotalCards         int                `json:"total_cards"`
	DueCards           int                `json:"due_cards"`
	TotalReviews       int                `json:"total_reviews"`
	AverageSuccessRate int                `json:"average_success_rate"`
	Subjects           []DashboardSubject `json:"subjects"`
}

// ReviewService provides flashcard review and study-progress operations.
type ReviewService interface {
	// SubmitReview grades a flashcard and reschedules it. The whole
	// operation runs in one transaction: the card is loaded, ownership is
	// verified, the scheduler computes the new state, and it is persisted.
	// The card is not modified when the quality is out of range.
	//
	// Returns ErrCardNotFound if the card does not exist,
	// ErrCardNotOwned if it belongs to another user, and
	// ErrInvalidQuality if quality is outside 0-5.
	SubmitReview(
		ctx context.Context,
		userID, cardID uuid.UUID,
		req ReviewRequest,
	) (*domain.Flashcard, error)

	// DueCards lists the user's cards that are due now, most overdue
	// first. A nil subjectID spans all subjects; limit values at or below
	// zero fall back to the store default.
	DueCards(
		ctx context.Context,
		userID uuid.UUID,
		subjectID *uuid.UUID,
		limit int,
	) ([]*domain.Flashcard, error)

	// GetDashboard computes study aggregates for the user across all
	// subjects.
	GetDashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error)

	// DeleteCard soft-deletes a flashcard after verifying ownership.
	// Returns ErrCardNotFound or ErrCardNotOwned accordingly.
	DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error
}

// Common error types for ReviewService
var (
	// ErrCardNotFound indicates that the flashcard does not exist.
	ErrCardNotFound = errors.New("flashcard not found")

	// ErrCardNotOwned indicates that the user does not own the flashcard.
	ErrCardNotOwned = errors.New("unauthorized access: flashcard not owned by user")

	// ErrInvalidQuality indicates the review quality is outside the 0-5 scale.
	ErrInvalidQuality = errors.New("review quality must be between 0 and 5")

	// ErrInvalidResponseTime indicates a negative response time was reported.
	ErrInvalidResponseTime = errors.New("response time cannot be negative")
)

// ServiceError wraps errors from the review service with operation context,
// letting consumers differentiate failures with errors.As instead of string
// matching.
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
