package generation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rotelab/rote-api/internal/domain"
)

// GeneratedCard is a single flashcard produced by an LLM, before it is
// bound to a user and subject and given scheduler state.
type GeneratedCard struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Topic      string   `json:"topic,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// Generator defines the interface for generating study content from a
// subject's syllabus text. It is the boundary between the application core
// and external AI/LLM services.
type Generator interface {
	// GenerateCards creates flashcards covering the provided syllabus.
	// Returns ErrEmptySyllabus if the syllabus is empty, ErrContentBlocked
	// if the model refuses the content, and ErrTransientFailure for
	// errors that may resolve on retry.
	GenerateCards(ctx context.Context, syllabus string) ([]GeneratedCard, error)

	// GenerateStudyPlan produces a study plan for the provided syllabus
	// as markdown text.
	GenerateStudyPlan(ctx context.Context, syllabus string) (string, error)
}

// ToFlashcards converts generated cards into domain flashcards owned by the
// given user and subject, each with fresh scheduler state. A card whose
// difficulty is unrecognized defaults to medium. Topic is folded into the
// card's tags so it survives persistence.
func ToFlashcards(
	cards []GeneratedCard,
	userID, subjectID uuid.UUID,
) ([]*domain.Flashcard, error) {
	out := make([]*domain.Flashcard, 0, len(cards))
	for i, gc := range cards {
		difficulty := domain.Difficulty(gc.Difficulty)
		switch difficulty {
		case domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard:
		default:
			difficulty = domain.DifficultyMedium
		}

		tags := gc.Tags
		if gc.Topic != "" {
			tags = append(append([]string{}, tags...), gc.Topic)
		}

		card, err := domain.NewFlashcard(userID, subjectID, gc.Question, gc.Answer, difficulty, tags)
		if err != nil {
			return nil, fmt.Errorf("%w: card %d: %v", ErrInvalidResponse, i, err)
		}
		out = append(out, card)
	}
	return out, nil
}
