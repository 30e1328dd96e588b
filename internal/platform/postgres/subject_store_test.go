package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotelab/rote-api/internal/domain"
	"github.com/rotelab/rote-api/internal/store"
)

var subjectColumns = []string{
	"id", "user_id", "name", "syllabus", "status", "study_plan", "created_at", "updated_at",
}

func newSubjectStoreForTest(t *testing.T) (*PostgresSubjectStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresSubjectStore(db, nil), mock
}

func subjectRow(subject *domain.Subject) *sqlmock.Rows {
	var plan any
	if subject.StudyPlan != "" {
		plan = subject.StudyPlan
	}
	return sqlmock.NewRows(subjectColumns).AddRow(
		subject.ID, subject.UserID, subject.Name, subject.Syllabus,
		string(subject.Status), plan, subject.CreatedAt, subject.UpdatedAt,
	)
}

func TestPostgresSubjectStore_Create(t *testing.T) {
	t.Run("inserts a valid subject", func(t *testing.T) {
		subjectStore, mock := newSubjectStoreForTest(t)
		subject, err := domain.NewSubject(uuid.New(), "Databases", "Week 1: SQL joins")
		require.NoError(t, err)

		mock.ExpectExec("INSERT INTO subjects").
			WithArgs(subject.ID, subject.UserID, subject.Name, subject.Syllabus,
				subject.Status, subject.StudyPlan, subject.CreatedAt, subject.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, subjectStore.Create(context.Background(), subject))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing owner maps to invalid entity", func(t *testing.T) {
		subjectStore, mock := newSubjectStoreForTest(t)
		subject, err := domain.NewSubject(uuid.New(), "Databases", "Week 1: SQL joins")
		require.NoError(t, err)

		mock.ExpectExec("INSERT INTO subjects").
			WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode})

		err = subjectStore.Create(context.Background(), subject)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("invalid subject never reaches the database", func(t *testing.T) {
		subjectStore, mock := newSubjectStoreForTest(t)

		subject := &domain.Subject{ID: uuid.New(), UserID: uuid.New(), Syllabus: "x"}
		err := subjectStore.Create(context.Background(), subject)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresSubjectStore_GetByID(t *testing.T) {
	t.Run("returns the subject with its study plan", func(t *testing.T) {
		subjectStore, mock := newSubjectStoreForTest(t)
		subject, err := domain.NewSubject(uuid.New(), "Databases", "Week 1: SQL joins")
		require.NoError(t, err)
		subject.MarkCompleted("## Plan")

		mock.ExpectQuery("SELECT (.+) FROM subjects").
			WithArgs(subject.ID).
			WillReturnRows(subjectRow(subject))

		got, err := subjectStore.GetByID(context.Background(), subject.ID)
		require.NoError(t, err)
		assert.Equal(t, subject.ID, got.ID)
		assert.Equal(t, domain.GenerationStatusCompleted, got.Status)
		assert.Equal(t, "## Plan", got.StudyPlan)
	})

	t.Run("null study plan scans as empty string", func(t *testing.T) {
		subjectStore, mock := newSubjectStoreForTest(t)
		subject, err := domain.NewSubject(uuid.New(), "Databases", "Week 1: SQL joins")
		require.NoError(t, err)

		mock.ExpectQuery("SELECT (.+) FROM subjects").
			WithArgs(subject.ID).
			WillReturnRows(subjectRow(subject))

		got, err := subjectStore.GetByID(context.Background(), subject.ID)
		require.NoError(t, err)
		assert.Empty(t, got.StudyPlan)
	})

	t.Run("missing subject returns not found", func(t *testing.T) {
		subjectStore, mock := newSubjectStoreForTest(t)
		id := uuid.New()

		mock.ExpectQuery("SELECT (.+) FROM subjects").
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := subjectStore.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, store.ErrSubjectNotFound)
	})
}

func TestPostgresSubjectStore_GetByStatus(t *testing.T) {
	subjectStore, mock := newSubjectStoreForTest(t)

	first, err := domain.NewSubject(uuid.New(), "Databases", "Week 1")
	require.NoError(t, err)
	second, err := domain.NewSubject(uuid.New(), "Networks", "Week 1")
	require.NoError(t, err)

	rows := subjectRow(first).AddRow(
		second.ID, second.UserID, second.Name, second.Syllabus,
		string(second.Status), nil, second.CreatedAt, second.UpdatedAt,
	)
	mock.ExpectQuery("SELECT (.+) FROM subjects").
		WithArgs(domain.GenerationStatusPending).
		WillReturnRows(rows)

	subjects, err := subjectStore.GetByStatus(context.Background(), domain.GenerationStatusPending)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, first.ID, subjects[0].ID)
	assert.Equal(t, second.ID, subjects[1].ID)
}

func TestPostgresSubjectStore_UpdateStatus(t *testing.T) {
	t.Run("updates status and timestamp", func(t *testing.T) {
		subjectStore, mock := newSubjectStoreForTest(t)
		id := uuid.New()

		mock.ExpectExec("UPDATE subjects").
			WithArgs(domain.GenerationStatusProcessing, sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t,
			subjectStore.UpdateStatus(context.Background(), id, domain.GenerationStatusProcessing))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid status is rejected before the database", func(t *testing.T) {
		subjectStore, mock := newSubjectStoreForTest(t)

		err := subjectStore.UpdateStatus(context.Background(), uuid.New(), "paused")
		assert.ErrorIs(t, err, domain.ErrInvalidGenerationStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing subject returns not found", func(t *testing.T) {
		subjectStore, mock := newSubjectStoreForTest(t)

		mock.ExpectExec("UPDATE subjects").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := subjectStore.UpdateStatus(context.Background(), uuid.New(), domain.GenerationStatusFailed)
		assert.ErrorIs(t, err, store.ErrSubjectNotFound)
	})
}

func TestPostgresSubjectStore_Update(t *testing.T) {
	subjectStore, mock := newSubjectStoreForTest(t)
	subject, err := domain.NewSubject(uuid.New(), "Databases", "Week 1: SQL joins")
	require.NoError(t, err)
	subject.MarkCompleted("## Plan")

	before := subject.UpdatedAt

	mock.ExpectExec("UPDATE subjects").
		WithArgs(subject.Name, subject.Syllabus, subject.Status, subject.StudyPlan,
			sqlmock.AnyArg(), subject.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, subjectStore.Update(context.Background(), subject))
	assert.False(t, subject.UpdatedAt.Before(before))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSubjectStore_Delete(t *testing.T) {
	t.Run("deletes existing subject", func(t *testing.T) {
		subjectStore, mock := newSubjectStoreForTest(t)
		id := uuid.New()

		mock.ExpectExec("DELETE FROM subjects").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, subjectStore.Delete(context.Background(), id))
	})

	t.Run("missing subject returns not found", func(t *testing.T) {
		subjectStore, mock := newSubjectStoreForTest(t)

		mock.ExpectExec("DELETE FROM subjects").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := subjectStore.Delete(context.Background(), uuid.New())
		assert.ErrorIs(t, err, store.ErrSubjectNotFound)
	})
}
