package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rotelab/rote-api/internal/domain"
	"github.com/rotelab/rote-api/internal/platform/logger"
	"github.com/rotelab/rote-api/internal/store"
)

// defaultDueLimit caps due-card queries when the caller does not specify
// a limit.
const defaultDueLimit = 20

// PostgresFlashcardStore implements the store.FlashcardStore interface
// using a PostgreSQL database as the storage backend. Review bookkeeping
// (stats and scheduling data) is stored as JSONB; the next review time is
// duplicated into an indexed column so due queries stay cheap.
type PostgresFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a new PostgreSQL implementation of the
// FlashcardStore interface. If logger is nil, the default logger is used.
func NewPostgresFlashcardStore(db store.DBTX, logger *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

// Ensure PostgresFlashcardStore implements store.FlashcardStore interface
var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

const flashcardColumns = `id, subject_id, user_id, question, answer, difficulty,
	tags, stats, review_data, active, created_at, updated_at`

// Create implements store.FlashcardStore.Create
// Returns store.ErrInvalidEntity if the subject or user does not exist.
func (s *PostgresFlashcardStore) Create(ctx context.Context, card *domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("flashcard validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	if err := s.insertCard(ctx, card); err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during flashcard creation",
				slog.String("card_id", card.ID.String()),
				slog.String("subject_id", card.SubjectID.String()))
			return fmt.Errorf("%w: subject or user for card %s not found",
				store.ErrInvalidEntity, card.ID)
		}

		log.Error("failed to create flashcard",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	log.Info("flashcard created successfully",
		slog.String("card_id", card.ID.String()),
		slog.String("subject_id", card.SubjectID.String()))
	return nil
}

// CreateMultiple implements store.FlashcardStore.CreateMultiple
// Run this within a transaction via WithTx and store.RunInTransaction so a
// failure part way through does not leave a partial batch behind.
func (s *PostgresFlashcardStore) CreateMultiple(
	ctx context.Context,
	cards []*domain.Flashcard,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("flashcard validation failed during batch create",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return err
		}
	}

	for _, card := range cards {
		if err := s.insertCard(ctx, card); err != nil {
			log.Error("failed to create flashcard in batch",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return MapError(err)
		}
	}

	log.Info("flashcards created successfully",
		slog.Int("count", len(cards)))
	return nil
}

func (s *PostgresFlashcardStore) insertCard(ctx context.Context, card *domain.Flashcard) error {
	tagsJSON, statsJSON, reviewJSON, err := marshalCardJSON(card)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO flashcards (id, subject_id, user_id, question, answer, difficulty,
			tags, stats, review_data, next_review_at, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.SubjectID,
		card.UserID,
		card.Question,
		card.Answer,
		card.Difficulty,
		tagsJSON,
		statsJSON,
		reviewJSON,
		card.ReviewData.NextReview,
		card.Active,
		card.CreatedAt,
		card.UpdatedAt,
	)
	return err
}

// GetByID implements store.FlashcardStore.GetByID
// Returns store.ErrFlashcardNotFound if the card does not exist or has
// been soft-deleted.
func (s *PostgresFlashcardStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + flashcardColumns + `
		FROM flashcards
		WHERE id = $1 AND active = TRUE
	`

	card, err := scanFlashcard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("flashcard not found", slog.String("card_id", id.String()))
			return nil, store.ErrFlashcardNotFound
		}
		log.Error("failed to get flashcard by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, err
	}

	return card, nil
}

// GetBySubject implements store.FlashcardStore.GetBySubject
func (s *PostgresFlashcardStore) GetBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
) ([]*domain.Flashcard, error) {
	query := `
		SELECT ` + flashcardColumns + `
		FROM flashcards
		WHERE subject_id = $1 AND active = TRUE
		ORDER BY created_at ASC
	`
	return s.queryCards(ctx, query, subjectID)
}

// GetByUser implements store.FlashcardStore.GetByUser
func (s *PostgresFlashcardStore) GetByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Flashcard, error) {
	query := `
		SELECT ` + flashcardColumns + `
		FROM flashcards
		WHERE user_id = $1 AND active = TRUE
		ORDER BY created_at ASC
	`
	return s.queryCards(ctx, query, userID)
}

// GetDue implements store.FlashcardStore.GetDue
// Cards are ordered most overdue first, creation time breaking ties.
func (s *PostgresFlashcardStore) GetDue(
	ctx context.Context,
	q store.DueQuery,
) ([]*domain.Flashcard, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultDueLimit
	}

	if q.SubjectID != nil {
		query := `
			SELECT ` + flashcardColumns + `
			FROM flashcards
			WHERE user_id = $1 AND subject_id = $2 AND active = TRUE
				AND next_review_at <= $3
			ORDER BY next_review_at ASC, created_at ASC
			LIMIT $4
		`
		return s.queryCards(ctx, query, q.UserID, *q.SubjectID, q.Before, limit)
	}

	query := `
		SELECT ` + flashcardColumns + `
		FROM flashcards
		WHERE user_id = $1 AND active = TRUE
			AND next_review_at <= $2
		ORDER BY next_review_at ASC, created_at ASC
		LIMIT $3
	`
	return s.queryCards(ctx, query, q.UserID, q.Before, limit)
}

// CountDue implements store.FlashcardStore.CountDue
func (s *PostgresFlashcardStore) CountDue(
	ctx context.Context,
	userID uuid.UUID,
	subjectID *uuid.UUID,
	before time.Time,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var count int
	var err error
	if subjectID != nil {
		query := `
			SELECT COUNT(*)
			FROM flashcards
			WHERE user_id = $1 AND subject_id = $2 AND active = TRUE
				AND next_review_at <= $3
		`
		err = s.db.QueryRowContext(ctx, query, userID, *subjectID, before).Scan(&count)
	} else {
		query := `
			SELECT COUNT(*)
			FROM flashcards
			WHERE user_id = $1 AND active = TRUE
				AND next_review_at <= $2
		`
		err = s.db.QueryRowContext(ctx, query, userID, before).Scan(&count)
	}

	if err != nil {
		log.Error("failed to count due flashcards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, err
	}

	return count, nil
}

// UpdateReviewState implements store.FlashcardStore.UpdateReviewState
// Only the review bookkeeping columns are written; question, answer, and
// other card fields are untouched.
// Returns store.ErrFlashcardNotFound if the card does not exist.
func (s *PostgresFlashcardStore) UpdateReviewState(
	ctx context.Context,
	card *domain.Flashcard,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	statsJSON, err := json.Marshal(card.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal card stats: %w", err)
	}
	reviewJSON, err := json.Marshal(card.ReviewData)
	if err != nil {
		return fmt.Errorf("failed to marshal review data: %w", err)
	}

	query := `
		UPDATE flashcards
		SET stats = $1, review_data = $2, next_review_at = $3, updated_at = $4
		WHERE id = $5 AND active = TRUE
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		statsJSON,
		reviewJSON,
		card.ReviewData.NextReview,
		card.UpdatedAt,
		card.ID,
	)

	if err != nil {
		log.Error("failed to update flashcard review state",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	if err := CheckRowsAffected(result, store.ErrFlashcardNotFound); err != nil {
		return err
	}

	log.Debug("flashcard review state updated",
		slog.String("card_id", card.ID.String()),
		slog.Int("interval", card.ReviewData.Interval),
		slog.Time("next_review", card.ReviewData.NextReview))
	return nil
}

// Delete implements store.FlashcardStore.Delete
// The card is soft-deleted: it is marked inactive and excluded from all
// queries but the row is retained.
// Returns store.ErrFlashcardNotFound if the card does not exist or has
// already been deleted.
func (s *PostgresFlashcardStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE flashcards
		SET active = FALSE, updated_at = $1
		WHERE id = $2 AND active = TRUE
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to delete flashcard",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return err
	}

	if err := CheckRowsAffected(result, store.ErrFlashcardNotFound); err != nil {
		return err
	}

	log.Info("flashcard deleted successfully",
		slog.String("card_id", id.String()))
	return nil
}

// WithTx implements store.FlashcardStore.WithTx
func (s *PostgresFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &PostgresFlashcardStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *PostgresFlashcardStore) queryCards(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query flashcards",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	cards := []*domain.Flashcard{}
	for rows.Next() {
		card, err := scanFlashcard(rows)
		if err != nil {
			log.Error("failed to scan flashcard row",
				slog.String("error", err.Error()))
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	return cards, nil
}

func marshalCardJSON(card *domain.Flashcard) (tags, stats, review []byte, err error) {
	tags, err = json.Marshal(card.Tags)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal card tags: %w", err)
	}
	stats, err = json.Marshal(card.Stats)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal card stats: %w", err)
	}
	review, err = json.Marshal(card.ReviewData)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal review data: %w", err)
	}
	return tags, stats, review, nil
}

func scanFlashcard(row rowScanner) (*domain.Flashcard, error) {
	var card domain.Flashcard
	var difficulty string
	var tagsJSON, statsJSON, reviewJSON []byte

	err := row.Scan(
		&card.ID,
		&card.SubjectID,
		&card.UserID,
		&card.Question,
		&card.Answer,
		&difficulty,
		&tagsJSON,
		&statsJSON,
		&reviewJSON,
		&card.Active,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Difficulty = domain.Difficulty(difficulty)

	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &card.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal card tags: %w", err)
		}
	}
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &card.Stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal card stats: %w", err)
		}
	}
	if len(reviewJSON) > 0 {
		if err := json.Unmarshal(reviewJSON, &card.ReviewData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal review data: %w", err)
		}
	}

	return &card, nil
}
