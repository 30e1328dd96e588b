package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rotelab/rote-api/internal/domain"
	"github.com/rotelab/rote-api/internal/domain/sm2"
	"github.com/rotelab/rote-api/internal/platform/logger"
	"github.com/rotelab/rote-api/internal/store"
)

// Verify interface compliance at compile time
var _ ReviewService = (*reviewServiceImpl)(nil)

// reviewServiceImpl implements the ReviewService interface.
type reviewServiceImpl struct {
	db           *sql.DB
	cardStore    store.FlashcardStore
	subjectStore store.SubjectStore
	scheduler    sm2.Service
	timeFunc     func() time.Time // Injectable for testing
	logger       *slog.Logger
}

// NewReviewService creates a new ReviewService implementation.
func NewReviewService(
	db *sql.DB,
	cardStore store.FlashcardStore,
	subjectStore store.SubjectStore,
	scheduler sm2.Service,
	logger *slog.Logger,
) ReviewService {
	if db == nil {
		panic("db cannot be nil")
	}
	if cardStore == nil {
		panic("cardStore cannot be nil")
	}
	if subjectStore == nil {
		panic("subjectStore cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &reviewServiceImpl{
		db:           db,
		cardStore:    cardStore,
		subjectStore: subjectStore,
		scheduler:    scheduler,
		timeFunc:     time.Now,
		logger:       logger.With(slog.String("component", "review_service")),
	}
}

// SubmitReview implements ReviewService.SubmitReview.
func (s *reviewServiceImpl) SubmitReview(
	ctx context.Context,
	userID, cardID uuid.UUID,
	req ReviewRequest,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("processing flashcard review",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("quality", req.Quality))

	// Fail fast before opening a transaction.
	if req.Quality < 0 || req.Quality > sm2.NewDefaultParams().MaxQuality {
		log.Warn("invalid review quality",
			slog.String("card_id", cardID.String()),
			slog.Int("quality", req.Quality))
		return nil, ErrInvalidQuality
	}
	if req.ResponseTimeSeconds != nil && *req.ResponseTimeSeconds < 0 {
		log.Warn("negative response time",
			slog.String("card_id", cardID.String()))
		return nil, ErrInvalidResponseTime
	}

	var updated *domain.Flashcard
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txCards := s.cardStore.WithTx(tx)

		card, err := txCards.GetByID(ctx, cardID)
		if err != nil {
			if errors.Is(err, store.ErrFlashcardNotFound) {
				return ErrCardNotFound
			}
			return fmt.Errorf("failed to load flashcard: %w", err)
		}

		if card.UserID != userID {
			log.Warn("user does not own flashcard",
				slog.String("user_id", userID.String()),
				slog.String("card_id", cardID.String()),
				slog.String("owner_id", card.UserID.String()))
			return ErrCardNotOwned
		}

		now := s.timeFunc().UTC()
		next, err := s.scheduler.Review(card, req.Quality, req.ResponseTimeSeconds, now)
		if err != nil {
			if errors.Is(err, sm2.ErrInvalidQuality) {
				return ErrInvalidQuality
			}
			if errors.Is(err, sm2.ErrNegativeTime) {
				return ErrInvalidResponseTime
			}
			return fmt.Errorf("failed to compute next review state: %w", err)
		}

		if err := txCards.UpdateReviewState(ctx, next); err != nil {
			return fmt.Errorf("failed to persist review state: %w", err)
		}

		updated = next
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrCardNotFound) ||
			errors.Is(err, ErrCardNotOwned) ||
			errors.Is(err, ErrInvalidQuality) ||
			errors.Is(err, ErrInvalidResponseTime) {
			return nil, err
		}

		log.Error("failed to submit review",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, &ServiceError{Operation: "submit_review", Message: "transaction failed", Err: err}
	}

	log.Info("flashcard review processed",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("quality", req.Quality),
		slog.Int("interval", updated.ReviewData.Interval),
		slog.Float64("ease_factor", updated.ReviewData.EaseFactor),
		slog.Time("next_review", updated.ReviewData.NextReview))

	return updated, nil
}

// DueCards implements ReviewService.DueCards.
func (s *reviewServiceImpl) DueCards(
	ctx context.Context,
	userID uuid.UUID,
	subjectID *uuid.UUID,
	limit int,
) ([]*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cards, err := s.cardStore.GetDue(ctx, store.DueQuery{
		UserID:    userID,
		SubjectID: subjectID,
		Before:    s.timeFunc().UTC(),
		Limit:     limit,
	})
	if err != nil {
		log.Error("failed to list due cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, &ServiceError{Operation: "due_cards", Message: "store query failed", Err: err}
	}

	log.Debug("listed due cards",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(cards)))
	return cards, nil
}

// GetDashboard implements ReviewService.GetDashboard.
// Aggregates are computed in memory from the user's full card set, which
// keeps the store layer free of reporting queries.
func (s *reviewServiceImpl) GetDashboard(
	ctx context.Context,
	userID uuid.UUID,
) (*Dashboard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	subjects, err := s.subjectStore.GetByUser(ctx, userID)
	if err != nil {
		log.Error("failed to load subjects for dashboard",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, &ServiceError{Operation: "dashboard", Message: "loading subjects failed", Err: err}
	}

	cards, err := s.cardStore.GetByUser(ctx, userID)
	if err != nil {
		log.Error("failed to load cards for dashboard",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, &ServiceError{Operation: "dashboard", Message: "loading cards failed", Err: err}
	}

	now := s.timeFunc().UTC()

	bySubject := make(map[uuid.UUID][]*domain.Flashcard, len(subjects))
	totalReviews := 0
	for _, card := range cards {
		bySubject[card.SubjectID] = append(bySubject[card.SubjectID], card)
		totalReviews += card.Stats.TimesReviewed
	}

	dashboard := &Dashboard{
		TotalCards:         len(cards),
		DueCards:           sm2.CountDue(cards, now),
		TotalReviews:       totalReviews,
		AverageSuccessRate: sm2.AverageSuccessRate(cards),
		Subjects:           make([]DashboardSubject, 0, len(subjects)),
	}

	for _, subject := range subjects {
		subjectCards := bySubject[subject.ID]
		dashboard.Subjects = append(dashboard.Subjects, DashboardSubject{
			SubjectID:          subject.ID,
			Name:               subject.Name,
			Status:             subject.Status,
			TotalCards:         len(subjectCards),
			DueCards:           sm2.CountDue(subjectCards, now),
			AverageSuccessRate: sm2.AverageSuccessRate(subjectCards),
		})
	}

	return dashboard, nil
}

// DeleteCard implements ReviewService.DeleteCard.
func (s *reviewServiceImpl) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.cardStore.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrFlashcardNotFound) {
			return ErrCardNotFound
		}
		return &ServiceError{Operation: "delete_card", Message: "loading card failed", Err: err}
	}

	if card.UserID != userID {
		log.Warn("user does not own flashcard",
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return ErrCardNotOwned
	}

	if err := s.cardStore.Delete(ctx, cardID); err != nil {
		if errors.Is(err, store.ErrFlashcardNotFound) {
			return ErrCardNotFound
		}
		log.Error("failed to delete flashcard",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return &ServiceError{Operation: "delete_card", Message: "delete failed", Err: err}
	}

	log.Info("flashcard deleted",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()))
	return nil
}
