// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rotelab/rote-api/internal/api/shared"
	"github.com/rotelab/rote-api/internal/domain"
	"github.com/rotelab/rote-api/internal/domain/sm2"
	"github.com/rotelab/rote-api/internal/platform/logger"
	"github.com/rotelab/rote-api/internal/redact"
	"github.com/rotelab/rote-api/internal/service/review"
)

// SubmitReviewRequest represents the request body for grading a flashcard
type SubmitReviewRequest struct {
	Quality             int      `json:"quality"              validate:"gte=0,lte=5"`
	ResponseTimeSeconds *float64 `json:"response_time_seconds,omitempty"`
}

// FlashcardResponse represents the response data for a flashcard. It carries
// the stored stats and scheduler state verbatim plus derived review fields.
type FlashcardResponse struct {
	ID          string            `json:"id"`
	SubjectID   string            `json:"subject_id"`
	UserID      string            `json:"user_id"`
	Question    string            `json:"question"`
	Answer      string            `json:"answer"`
	Difficulty  string            `json:"difficulty"`
	Tags        []string          `json:"tags,omitempty"`
	Stats       domain.CardStats  `json:"stats"`
	ReviewData  domain.ReviewData `json:"reviewData"`
	SuccessRate int               `json:"successRate"`
	IsDue       bool              `json:"isDue"`
	NextReview  time.Time         `json:"nextReview"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// FlashcardHandler handles flashcard review HTTP requests
type FlashcardHandler struct {
	reviewService review.ReviewService
	logger        *slog.Logger
	timeFunc      func() time.Time
}

// NewFlashcardHandler creates a new FlashcardHandler
func NewFlashcardHandler(reviewService review.ReviewService, logger *slog.Logger) *FlashcardHandler {
	if reviewService == nil {
		panic("reviewService cannot be nil for FlashcardHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for FlashcardHandler")
	}

	return &FlashcardHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "flashcard_handler")),
		timeFunc:      time.Now,
	}
}

// SubmitReview handles POST /api/flashcards/{id}/review requests.
// It grades the card on the 0-5 quality scale and returns the rescheduled
// card with its updated statistics.
func (h *FlashcardHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	cardID, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid flashcard ID in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid flashcard ID format")
		return
	}

	var req SubmitReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("card_id", cardID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	card, err := h.reviewService.SubmitReview(r.Context(), userID, cardID, review.ReviewRequest{
		Quality:             req.Quality,
		ResponseTimeSeconds: req.ResponseTimeSeconds,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Debug("review submitted",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("quality", req.Quality))
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card, h.timeFunc().UTC()))
}

// DueCards handles GET /api/flashcards/due requests. Optional query
// parameters: subject_id narrows to one subject, limit caps the batch size.
func (h *FlashcardHandler) DueCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var subjectID *uuid.UUID
	if raw := r.URL.Query().Get("subject_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid subject_id format")
			return
		}
		subjectID = &id
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit value")
			return
		}
		limit = parsed
	}

	cards, err := h.reviewService.DueCards(r.Context(), userID, subjectID, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardsToResponses(cards, h.timeFunc().UTC()))
}

// GetDashboard handles GET /api/dashboard requests.
func (h *FlashcardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	dashboard, err := h.reviewService.GetDashboard(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, dashboard)
}

// DeleteCard handles DELETE /api/flashcards/{id} requests.
func (h *FlashcardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	cardID, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid flashcard ID in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid flashcard ID format")
		return
	}

	if err := h.reviewService.DeleteCard(r.Context(), userID, cardID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Debug("flashcard deleted",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// cardToResponse converts a domain.Flashcard to a FlashcardResponse,
// deriving the success rate and due state as of now.
func cardToResponse(card *domain.Flashcard, now time.Time) FlashcardResponse {
	return FlashcardResponse{
		ID:          card.ID.String(),
		SubjectID:   card.SubjectID.String(),
		UserID:      card.UserID.String(),
		Question:    card.Question,
		Answer:      card.Answer,
		Difficulty:  string(card.Difficulty),
		Tags:        card.Tags,
		Stats:       card.Stats,
		ReviewData:  card.ReviewData,
		SuccessRate: sm2.SuccessRate(card),
		IsDue:       sm2.IsDue(card, now),
		NextReview:  card.ReviewData.NextReview,
		CreatedAt:   card.CreatedAt,
		UpdatedAt:   card.UpdatedAt,
	}
}

func cardsToResponses(cards []*domain.Flashcard, now time.Time) []FlashcardResponse {
	responses := make([]FlashcardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, cardToResponse(card, now))
	}
	return responses
}
