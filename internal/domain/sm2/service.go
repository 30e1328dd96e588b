// Package sm2 implements the spaced-repetition scheduler: a pure,
// deterministic state transition that maps (card, quality, now) to the
// card's next scheduling state, plus the read-only queries derived from it.
package sm2

import (
	"errors"
	"time"

	"github.com/rotelab/rote-api/internal/domain"
)

// Common errors
var (
	ErrNilCard        = errors.New("flashcard cannot be nil")
	ErrInvalidQuality = errors.New("quality must be between 0 and 5")
	ErrNegativeTime   = errors.New("response time cannot be negative")
)

// Service defines the interface for scheduler operations.
type Service interface {
	// Review computes the card's next state from a single review event.
	// quality is an integer in [0, MaxQuality]; responseTime, when non-nil,
	// is the answer duration in seconds and folds into the running mean.
	// The input card is not modified; the returned card carries the new
	// stats and review data.
	Review(
		card *domain.Flashcard,
		quality int,
		responseTime *float64,
		now time.Time,
	) (*domain.Flashcard, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduler service with the standard SM-2
// parameters.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a scheduler service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

// Review implements the Service interface. Validation happens before any
// state is computed, so an invalid call leaves the card untouched.
func (s *defaultService) Review(
	card *domain.Flashcard,
	quality int,
	responseTime *float64,
	now time.Time,
) (*domain.Flashcard, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	if quality < 0 || quality > s.params.MaxQuality {
		return nil, ErrInvalidQuality
	}

	if responseTime != nil && *responseTime < 0 {
		return nil, ErrNegativeTime
	}

	return reviewTransition(card, quality, responseTime, now, s.params), nil
}

// SuccessRate returns the card's success percentage, rounded to the nearest
// integer. A card that has never been reviewed reports 0.
func SuccessRate(card *domain.Flashcard) int {
	if card.Stats.TimesReviewed == 0 {
		return 0
	}

	rate := float64(card.Stats.CorrectAnswers) / float64(card.Stats.TimesReviewed) * 100
	return int(rate + 0.5)
}

// IsDue reports whether the card's next review time has arrived.
func IsDue(card *domain.Flashcard, now time.Time) bool {
	return !now.Before(card.ReviewData.NextReview)
}

// AverageSuccessRate returns the mean success rate over the cards that have
// been reviewed at least once, rounded to the nearest integer. If no card
// has been reviewed, it returns 0.
func AverageSuccessRate(cards []*domain.Flashcard) int {
	var sum, reviewed int
	for _, card := range cards {
		if card.Stats.TimesReviewed > 0 {
			sum += SuccessRate(card)
			reviewed++
		}
	}

	if reviewed == 0 {
		return 0
	}

	return int(float64(sum)/float64(reviewed) + 0.5)
}

// CountDue returns how many of the given cards are due at the given time.
func CountDue(cards []*domain.Flashcard, now time.Time) int {
	due := 0
	for _, card := range cards {
		if IsDue(card, now) {
			due++
		}
	}
	return due
}
