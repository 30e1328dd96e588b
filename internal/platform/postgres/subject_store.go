package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rotelab/rote-api/internal/domain"
	"github.com/rotelab/rote-api/internal/platform/logger"
	"github.com/rotelab/rote-api/internal/store"
)

// PostgresSubjectStore implements the store.SubjectStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSubjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubjectStore creates a new PostgreSQL implementation of the
// SubjectStore interface. If logger is nil, the default logger is used.
func NewPostgresSubjectStore(db store.DBTX, logger *slog.Logger) *PostgresSubjectStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSubjectStore{
		db:     db,
		logger: logger.With(slog.String("component", "subject_store")),
	}
}

// Ensure PostgresSubjectStore implements store.SubjectStore interface
var _ store.SubjectStore = (*PostgresSubjectStore)(nil)

// Create implements store.SubjectStore.Create
// Returns store.ErrInvalidEntity if the owning user does not exist.
func (s *PostgresSubjectStore) Create(ctx context.Context, subject *domain.Subject) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := subject.Validate(); err != nil {
		log.Warn("subject validation failed during create",
			slog.String("error", err.Error()),
			slog.String("subject_id", subject.ID.String()))
		return err
	}

	query := `
		INSERT INTO subjects (id, user_id, name, syllabus, status, study_plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		subject.ID,
		subject.UserID,
		subject.Name,
		subject.Syllabus,
		subject.Status,
		subject.StudyPlan,
		subject.CreatedAt,
		subject.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during subject creation",
				slog.String("subject_id", subject.ID.String()),
				slog.String("user_id", subject.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, subject.UserID)
		}

		log.Error("failed to create subject",
			slog.String("error", err.Error()),
			slog.String("subject_id", subject.ID.String()))
		return err
	}

	log.Info("subject created successfully",
		slog.String("subject_id", subject.ID.String()),
		slog.String("user_id", subject.UserID.String()),
		slog.String("status", string(subject.Status)))
	return nil
}

// GetByID implements store.SubjectStore.GetByID
// Returns store.ErrSubjectNotFound if the subject does not exist.
func (s *PostgresSubjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, syllabus, status, study_plan, created_at, updated_at
		FROM subjects
		WHERE id = $1
	`

	subject, err := scanSubject(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("subject not found", slog.String("subject_id", id.String()))
			return nil, store.ErrSubjectNotFound
		}
		log.Error("failed to get subject by ID",
			slog.String("error", err.Error()),
			slog.String("subject_id", id.String()))
		return nil, err
	}

	return subject, nil
}

// GetByUser implements store.SubjectStore.GetByUser
// Returns an empty slice if the user has no subjects.
func (s *PostgresSubjectStore) GetByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, syllabus, status, study_plan, created_at, updated_at
		FROM subjects
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query subjects by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	subjects := []*domain.Subject{}
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			log.Error("failed to scan subject row",
				slog.String("error", err.Error()))
			return nil, err
		}
		subjects = append(subjects, subject)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	return subjects, nil
}

// GetByStatus implements store.SubjectStore.GetByStatus
func (s *PostgresSubjectStore) GetByStatus(
	ctx context.Context,
	status domain.GenerationStatus,
) ([]*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, syllabus, status, study_plan, created_at, updated_at
		FROM subjects
		WHERE status = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		log.Error("failed to query subjects by status",
			slog.String("error", err.Error()),
			slog.String("status", string(status)))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	subjects := []*domain.Subject{}
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			log.Error("failed to scan subject row",
				slog.String("error", err.Error()))
			return nil, err
		}
		subjects = append(subjects, subject)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	return subjects, nil
}

// Update implements store.SubjectStore.Update
// Returns store.ErrSubjectNotFound if the subject does not exist.
func (s *PostgresSubjectStore) Update(ctx context.Context, subject *domain.Subject) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := subject.Validate(); err != nil {
		log.Warn("subject validation failed during update",
			slog.String("error", err.Error()),
			slog.String("subject_id", subject.ID.String()))
		return err
	}

	subject.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE subjects
		SET name = $1, syllabus = $2, status = $3, study_plan = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		subject.Name,
		subject.Syllabus,
		subject.Status,
		subject.StudyPlan,
		subject.UpdatedAt,
		subject.ID,
	)

	if err != nil {
		log.Error("failed to update subject",
			slog.String("error", err.Error()),
			slog.String("subject_id", subject.ID.String()))
		return err
	}

	if err := CheckRowsAffected(result, store.ErrSubjectNotFound); err != nil {
		return err
	}

	log.Info("subject updated successfully",
		slog.String("subject_id", subject.ID.String()),
		slog.String("status", string(subject.Status)))
	return nil
}

// UpdateStatus implements store.SubjectStore.UpdateStatus
// Returns store.ErrSubjectNotFound if the subject does not exist.
func (s *PostgresSubjectStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.GenerationStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.IsValid() {
		log.Warn("invalid generation status during status update",
			slog.String("subject_id", id.String()),
			slog.String("status", string(status)))
		return domain.ErrInvalidGenerationStatus
	}

	query := `
		UPDATE subjects
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update subject status",
			slog.String("error", err.Error()),
			slog.String("subject_id", id.String()),
			slog.String("status", string(status)))
		return err
	}

	if err := CheckRowsAffected(result, store.ErrSubjectNotFound); err != nil {
		return err
	}

	log.Info("subject status updated successfully",
		slog.String("subject_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// Delete implements store.SubjectStore.Delete
// Flashcards belonging to the subject are removed by ON DELETE CASCADE.
// Returns store.ErrSubjectNotFound if the subject does not exist.
func (s *PostgresSubjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM subjects WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete subject",
			slog.String("error", err.Error()),
			slog.String("subject_id", id.String()))
		return err
	}

	if err := CheckRowsAffected(result, store.ErrSubjectNotFound); err != nil {
		return err
	}

	log.Info("subject deleted successfully",
		slog.String("subject_id", id.String()))
	return nil
}

// WithTx implements store.SubjectStore.WithTx
func (s *PostgresSubjectStore) WithTx(tx *sql.Tx) store.SubjectStore {
	return &PostgresSubjectStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubject(row rowScanner) (*domain.Subject, error) {
	var subject domain.Subject
	var status string
	var studyPlan sql.NullString

	err := row.Scan(
		&subject.ID,
		&subject.UserID,
		&subject.Name,
		&subject.Syllabus,
		&status,
		&studyPlan,
		&subject.CreatedAt,
		&subject.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	subject.Status = domain.GenerationStatus(status)
	if studyPlan.Valid {
		subject.StudyPlan = studyPlan.String
	}

	return &subject, nil
}
