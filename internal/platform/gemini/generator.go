package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/rotelab/rote-api/internal/config"
	"github.com/rotelab/rote-api/internal/generation"
)

// cardsResponse is the JSON shape the model is instructed to return for
// flashcard generation.
type cardsResponse struct {
	Cards []generation.GeneratedCard `json:"cards"`
}

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API.
type GeminiGenerator struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string
	rng    *rand.Rand
}

// Ensure GeminiGenerator implements generation.Generator
var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a new GeminiGenerator. It validates the LLM
// configuration and initializes the API client; the context governs client
// setup only, not later generation calls.
func NewGeminiGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiGenerator{
		logger: logger.With(slog.String("component", "gemini_generator")),
		config: cfg,
		client: client,
		model:  cfg.ModelName,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// GenerateCards implements generation.Generator.GenerateCards
func (g *GeminiGenerator) GenerateCards(
	ctx context.Context,
	syllabus string,
) ([]generation.GeneratedCard, error) {
	prompt, err := renderPrompt(cardsPrompt, syllabus)
	if err != nil {
		return nil, err
	}

	raw, err := g.callWithRetry(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	cards, err := parseCardsResponse(raw)
	if err != nil {
		g.logger.ErrorContext(ctx, "failed to parse generated cards",
			slog.String("error", err.Error()))
		return nil, err
	}

	g.logger.InfoContext(ctx, "generated flashcards",
		slog.Int("count", len(cards)))
	return cards, nil
}

// GenerateStudyPlan implements generation.Generator.GenerateStudyPlan
func (g *GeminiGenerator) GenerateStudyPlan(ctx context.Context, syllabus string) (string, error) {
	prompt, err := renderPrompt(studyPlanPrompt, syllabus)
	if err != nil {
		return "", err
	}

	plan, err := g.callWithRetry(ctx, prompt, false)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(plan) == "" {
		return "", fmt.Errorf("%w: empty study plan", generation.ErrInvalidResponse)
	}

	g.logger.InfoContext(ctx, "generated study plan",
		slog.Int("length", len(plan)))
	return plan, nil
}

// callWithRetry makes a Gemini API call with exponential backoff. Transient
// errors are retried up to MaxRetries times with jittered delays; permanent
// errors (blocked content, malformed responses) are returned immediately.
func (g *GeminiGenerator) callWithRetry(
	ctx context.Context,
	prompt string,
	asJSON bool,
) (string, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelaySeconds := g.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}

	var genCfg *genai.GenerateContentConfig
	if asJSON {
		genCfg = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		g.logger.InfoContext(ctx, "calling Gemini API",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1),
			slog.String("model", g.model))

		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genCfg)

		text, err := extractText(resp, err)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !errors.Is(err, generation.ErrTransientFailure) {
			g.logger.ErrorContext(ctx, "Gemini API call failed permanently",
				slog.String("error", err.Error()),
				slog.Int("attempt", attempt+1))
			return "", err
		}

		g.logger.WarnContext(ctx, "Gemini API call failed, will retry",
			slog.String("error", err.Error()),
			slog.Int("attempt", attempt+1))

		if attempt < maxRetries {
			delay := backoffDelay(baseDelaySeconds, attempt, g.rng.Float64())
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return "", fmt.Errorf("%w: all %d attempts failed: %v",
		generation.ErrGenerationFailed, maxRetries+1, lastErr)
}

// extractText classifies an API result into either usable text or one of
// the generation sentinel errors.
func extractText(resp *genai.GenerateContentResponse, callErr error) (string, error) {
	if callErr != nil {
		// Network failures, rate limits, and server errors all come back
		// through here; treat them as retryable.
		return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, callErr)
	}

	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s",
			generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", generation.ErrInvalidResponse)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: candidate blocked by safety filters",
			generation.ErrContentBlocked)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}

	return text, nil
}

// backoffDelay computes the delay before the given 0-based retry attempt:
// base * 2^attempt seconds, plus up to 50% jitter.
func backoffDelay(baseSeconds, attempt int, jitter float64) time.Duration {
	backoff := float64(baseSeconds) * math.Pow(2, float64(attempt))
	withJitter := backoff * (1 + 0.5*jitter)
	return time.Duration(withJitter * float64(time.Second))
}

func renderPrompt(tmpl *template.Template, syllabus string) (string, error) {
	if strings.TrimSpace(syllabus) == "" {
		return "", generation.ErrEmptySyllabus
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Syllabus: syllabus}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// parseCardsResponse decodes the model's JSON output. Code fences are
// stripped first since models wrap JSON in them despite instructions.
func parseCardsResponse(raw string) ([]generation.GeneratedCard, error) {
	cleaned := stripCodeFences(raw)

	var parsed cardsResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}

	if len(parsed.Cards) == 0 {
		return nil, fmt.Errorf("%w: response contained no cards", generation.ErrInvalidResponse)
	}

	for i, card := range parsed.Cards {
		if strings.TrimSpace(card.Question) == "" || strings.TrimSpace(card.Answer) == "" {
			return nil, fmt.Errorf("%w: card %d missing question or answer",
				generation.ErrInvalidResponse, i)
		}
	}

	return parsed.Cards, nil
}

func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
