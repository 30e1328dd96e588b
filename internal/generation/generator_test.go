package generation_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotelab/rote-api/internal/domain"
	"github.com/rotelab/rote-api/internal/generation"
)

func TestToFlashcards(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	subjectID := uuid.New()

	t.Run("binds cards to owner with fresh scheduler state", func(t *testing.T) {
		t.Parallel()

		cards, err := generation.ToFlashcards([]generation.GeneratedCard{
			{
				Question:   "What is a goroutine?",
				Answer:     "A lightweight thread managed by the Go runtime.",
				Topic:      "concurrency",
				Difficulty: "easy",
				Tags:       []string{"go"},
			},
		}, userID, subjectID)
		require.NoError(t, err)
		require.Len(t, cards, 1)

		card := cards[0]
		assert.Equal(t, userID, card.UserID)
		assert.Equal(t, subjectID, card.SubjectID)
		assert.Equal(t, domain.DifficultyEasy, card.Difficulty)
		assert.Equal(t, []string{"go", "concurrency"}, card.Tags)
		assert.Equal(t, 0, card.Stats.TimesReviewed)
		assert.Equal(t, domain.InitialInterval, card.ReviewData.Interval)
		assert.InDelta(t, domain.InitialEaseFactor, card.ReviewData.EaseFactor, 0.0001)
		assert.True(t, card.Active)
	})

	t.Run("unknown difficulty defaults to medium", func(t *testing.T) {
		t.Parallel()

		cards, err := generation.ToFlashcards([]generation.GeneratedCard{
			{Question: "Q", Answer: "A", Difficulty: "brutal"},
		}, userID, subjectID)
		require.NoError(t, err)
		assert.Equal(t, domain.DifficultyMedium, cards[0].Difficulty)
	})

	t.Run("invalid card surfaces ErrInvalidResponse", func(t *testing.T) {
		t.Parallel()

		_, err := generation.ToFlashcards([]generation.GeneratedCard{
			{Question: "", Answer: "A"},
		}, userID, subjectID)
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		t.Parallel()

		cards, err := generation.ToFlashcards(nil, userID, subjectID)
		require.NoError(t, err)
		assert.Empty(t, cards)
	})
}
