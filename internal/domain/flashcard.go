package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Difficulty is descriptive metadata assigned at generation time. The
// scheduler never reads it; it exists for display and filtering.
type Difficulty string

// Possible difficulty values
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Flashcard-specific validation errors
var (
	ErrCardIDEmpty        = errors.New("flashcard ID cannot be empty")
	ErrCardUserIDEmpty    = errors.New("flashcard user ID cannot be empty")
	ErrCardSubjectIDEmpty = errors.New("flashcard subject ID cannot be empty")
	ErrCardQuestionEmpty  = errors.New("flashcard question cannot be empty")
	ErrCardAnswerEmpty    = errors.New("flashcard answer cannot be empty")
)

// Default scheduler state for a freshly created card.
const (
	InitialInterval   = 1
	InitialEaseFactor = 2.5
)

// CardStats is the mutable aggregate of review outcomes for a card.
// Field names are fixed for interoperability with the dashboard consumer;
// the stats document is stored verbatim.
type CardStats struct {
	TimesReviewed       int        `json:"timesReviewed"`
	CorrectAnswers      int        `json:"correctAnswers"`
	IncorrectAnswers    int        `json:"incorrectAnswers"`
	LastReviewed        *time.Time `json:"lastReviewed,omitempty"`
	AverageResponseTime float64    `json:"averageResponseTime"` // Running mean, seconds
}

// ReviewData is the spaced-repetition scheduler state for a card.
// Field names are fixed for interoperability; see CardStats.
type ReviewData struct {
	Interval    int       `json:"interval"`    // Days until the next review
	EaseFactor  float64   `json:"easeFactor"`  // Growth multiplier, floored at 1.3
	NextReview  time.Time `json:"nextReview"`  // When the card is next due
	ReviewCount int       `json:"reviewCount"` // Consecutive qualifying reviews, reset on failure
}

// Flashcard is a question/answer pair owned by a user within a subject,
// carrying its review statistics and scheduler state. Content fields are
// opaque to the scheduler.
type Flashcard struct {
	ID         uuid.UUID  `json:"id"`
	SubjectID  uuid.UUID  `json:"subject_id"`
	UserID     uuid.UUID  `json:"user_id"`
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Difficulty Difficulty `json:"difficulty"`
	Tags       []string   `json:"tags,omitempty"`
	Stats      CardStats  `json:"stats"`
	ReviewData ReviewData `json:"reviewData"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewFlashcard creates a new Flashcard with default scheduler state:
// due immediately, a one-day interval, and the standard starting ease factor.
// Returns an error if validation fails.
func NewFlashcard(
	userID, subjectID uuid.UUID,
	question, answer string,
	difficulty Difficulty,
	tags []string,
) (*Flashcard, error) {
	now := time.Now().UTC()
	card := &Flashcard{
		ID:         uuid.New(),
		SubjectID:  subjectID,
		UserID:     userID,
		Question:   question,
		Answer:     answer,
		Difficulty: difficulty,
		Tags:       tags,
		Stats:      CardStats{},
		ReviewData: ReviewData{
			Interval:    InitialInterval,
			EaseFactor:  InitialEaseFactor,
			NextReview:  now,
			ReviewCount: 0,
		},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Flashcard has valid data.
// Returns an error if any field fails validation.
func (c *Flashcard) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrCardUserIDEmpty
	}

	if c.SubjectID == uuid.Nil {
		return ErrCardSubjectIDEmpty
	}

	if c.Question == "" {
		return ErrCardQuestionEmpty
	}

	if c.Answer == "" {
		return ErrCardAnswerEmpty
	}

	switch c.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return ErrInvalidDifficulty
	}

	return nil
}

// Clone returns a deep copy of the flashcard. The scheduler operates on
// copies so that a failed transition never leaves a half-mutated card.
func (c *Flashcard) Clone() *Flashcard {
	clone := *c

	if c.Tags != nil {
		clone.Tags = make([]string, len(c.Tags))
		copy(clone.Tags, c.Tags)
	}

	if c.Stats.LastReviewed != nil {
		t := *c.Stats.LastReviewed
		clone.Stats.LastReviewed = &t
	}

	return &clone
}
