package gemini

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/rotelab/rote-api/internal/generation"
)

func TestRenderPrompt(t *testing.T) {
	t.Parallel()

	t.Run("includes the syllabus text", func(t *testing.T) {
		t.Parallel()

		prompt, err := renderPrompt(cardsPrompt, "Week 1: SQL joins")
		require.NoError(t, err)
		assert.Contains(t, prompt, "Week 1: SQL joins")
		assert.Contains(t, prompt, "flashcards")
	})

	t.Run("rejects empty syllabus", func(t *testing.T) {
		t.Parallel()

		_, err := renderPrompt(cardsPrompt, "   ")
		assert.ErrorIs(t, err, generation.ErrEmptySyllabus)
	})
}

func TestParseCardsResponse(t *testing.T) {
	t.Parallel()

	valid := `{"cards": [{"question": "What is an inner join?", "answer": "Rows matching in both tables.", "topic": "joins", "difficulty": "easy", "tags": ["sql"]}]}`

	t.Run("parses plain JSON", func(t *testing.T) {
		t.Parallel()

		cards, err := parseCardsResponse(valid)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, "What is an inner join?", cards[0].Question)
		assert.Equal(t, "joins", cards[0].Topic)
	})

	t.Run("strips markdown code fences", func(t *testing.T) {
		t.Parallel()

		fenced := "```json\n" + valid + "\n```"
		cards, err := parseCardsResponse(fenced)
		require.NoError(t, err)
		assert.Len(t, cards, 1)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()

		_, err := parseCardsResponse("not json at all")
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("rejects empty card list", func(t *testing.T) {
		t.Parallel()

		_, err := parseCardsResponse(`{"cards": []}`)
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("rejects cards missing question or answer", func(t *testing.T) {
		t.Parallel()

		_, err := parseCardsResponse(`{"cards": [{"question": "", "answer": "A"}]}`)
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	t.Run("call errors are transient", func(t *testing.T) {
		t.Parallel()

		_, err := extractText(nil, errors.New("rate limited"))
		assert.ErrorIs(t, err, generation.ErrTransientFailure)
	})

	t.Run("nil response is permanent", func(t *testing.T) {
		t.Parallel()

		_, err := extractText(nil, nil)
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
		assert.NotErrorIs(t, err, generation.ErrTransientFailure)
	})

	t.Run("prompt block maps to content blocked", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{
				BlockReason: genai.BlockedReasonSafety,
			},
		}
		_, err := extractText(resp, nil)
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
	})

	t.Run("safety finish reason maps to content blocked", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{FinishReason: genai.FinishReasonSafety},
			},
		}
		_, err := extractText(resp, nil)
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
	})

	t.Run("returns candidate text", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{
					Content: &genai.Content{
						Parts: []*genai.Part{{Text: `{"cards": []}`}},
					},
				},
			},
		}
		text, err := extractText(resp, nil)
		require.NoError(t, err)
		assert.Equal(t, `{"cards": []}`, text)
	})
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	// Without jitter the delays double each attempt.
	assert.Equal(t, 2*time.Second, backoffDelay(2, 0, 0))
	assert.Equal(t, 4*time.Second, backoffDelay(2, 1, 0))
	assert.Equal(t, 8*time.Second, backoffDelay(2, 2, 0))

	// Full jitter adds at most 50%.
	assert.Equal(t, 3*time.Second, backoffDelay(2, 0, 1))
}

func TestStripCodeFences(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
	assert.False(t, strings.Contains(stripCodeFences("```json\n{}\n```"), "`"))
}
