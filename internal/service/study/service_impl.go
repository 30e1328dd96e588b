package study

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rotelab/rote-api/internal/domain"
	"github.com/rotelab/rote-api/internal/platform/logger"
	"github.com/rotelab/rote-api/internal/store"
)

// Verify interface compliance at compile time
var _ StudyService = (*studyServiceImpl)(nil)

// studyServiceImpl implements the StudyService interface.
type studyServiceImpl struct {
	subjectStore store.SubjectStore
	cardStore    store.FlashcardStore
	enqueuer     GenerationEnqueuer
	logger       *slog.Logger
}

// NewStudyService creates a new StudyService implementation.
func NewStudyService(
	subjectStore store.SubjectStore,
	cardStore store.FlashcardStore,
	enqueuer GenerationEnqueuer,
	logger *slog.Logger,
) StudyService {
	if subjectStore == nil {
		panic("subjectStore cannot be nil")
	}
	if cardStore == nil {
		panic("cardStore cannot be nil")
	}
	if enqueuer == nil {
		panic("enqueuer cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &studyServiceImpl{
		subjectStore: subjectStore,
		cardStore:    cardStore,
		enqueuer:     enqueuer,
		logger:       logger.With(slog.String("component", "study_service")),
	}
}

// CreateSubject implements StudyService.CreateSubject.
// The subject is persisted in the pending state before generation is
// queued; if queueing fails the subject is marked failed so the client
// sees the problem instead of a subject stuck on pending.
func (s *studyServiceImpl) CreateSubject(
	ctx context.Context,
	userID uuid.UUID,
	name, syllabus string,
) (*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	subject, err := domain.NewSubject(userID, name, syllabus)
	if err != nil {
		log.Warn("subject validation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	if err := s.subjectStore.Create(ctx, subject); err != nil {
		log.Error("failed to create subject",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, &ServiceError{Operation: "create_subject", Message: "store create failed", Err: err}
	}

	if err := s.enqueuer.EnqueueGeneration(ctx, subject.ID); err != nil {
		log.Error("failed to enqueue content generation",
			slog.String("error", err.Error()),
			slog.String("subject_id", subject.ID.String()))

		subject.MarkFailed()
		if updateErr := s.subjectStore.UpdateStatus(ctx, subject.ID, domain.GenerationStatusFailed); updateErr != nil {
			log.Error("failed to mark subject as failed",
				slog.String("error", updateErr.Error()),
				slog.String("subject_id", subject.ID.String()))
		}

		return nil, &ServiceError{Operation: "create_subject", Message: "enqueue failed", Err: err}
	}

	log.Info("subject created and generation queued",
		slog.String("subject_id", subject.ID.String()),
		slog.String("user_id", userID.String()))
	return subject, nil
}

// GetSubject implements StudyService.GetSubject.
func (s *studyServiceImpl) GetSubject(
	ctx context.Context,
	userID, subjectID uuid.UUID,
) (*domain.Subject, error) {
	subject, err := s.loadOwnedSubject(ctx, userID, subjectID)
	if err != nil {
		return nil, err
	}
	return subject, nil
}

// ListSubjects implements StudyService.ListSubjects.
func (s *studyServiceImpl) ListSubjects(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	subjects, err := s.subjectStore.GetByUser(ctx, userID)
	if err != nil {
		log.Error("failed to list subjects",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, &ServiceError{Operation: "list_subjects", Message: "store query failed", Err: err}
	}

	return subjects, nil
}

// ListCards implements StudyService.ListCards.
func (s *studyServiceImpl) ListCards(
	ctx context.Context,
	userID, subjectID uuid.UUID,
) ([]*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.loadOwnedSubject(ctx, userID, subjectID); err != nil {
		return nil, err
	}

	cards, err := s.cardStore.GetBySubject(ctx, subjectID)
	if err != nil {
		log.Error("failed to list subject cards",
			slog.String("error", err.Error()),
			slog.String("subject_id", subjectID.String()))
		return nil, &ServiceError{Operation: "list_cards", Message: "store query failed", Err: err}
	}

	return cards, nil
}

// DeleteSubject implements StudyService.DeleteSubject.
func (s *studyServiceImpl) DeleteSubject(ctx context.Context, userID, subjectID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.loadOwnedSubject(ctx, userID, subjectID); err != nil {
		return err
	}

	if err := s.subjectStore.Delete(ctx, subjectID); err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return ErrSubjectNotFound
		}
		log.Error("failed to delete subject",
			slog.String("error", err.Error()),
			slog.String("subject_id", subjectID.String()))
		return &ServiceError{Operation: "delete_subject", Message: "delete failed", Err: err}
	}

	log.Info("subject deleted",
		slog.String("subject_id", subjectID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

func (s *studyServiceImpl) loadOwnedSubject(
	ctx context.Context,
	userID, subjectID uuid.UUID,
) (*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	subject, err := s.subjectStore.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return nil, ErrSubjectNotFound
		}
		log.Error("failed to load subject",
			slog.String("error", err.Error()),
			slog.String("subject_id", subjectID.String()))
		return nil, &ServiceError{Operation: "get_subject", Message: "store query failed", Err: err}
	}

	if subject.UserID != userID {
		log.Warn("user does not own subject",
			slog.String("user_id", userID.String()),
			slog.String("subject_id", subjectID.String()))
		return nil, ErrSubjectNotOwned
	}

	return subject, nil
}
