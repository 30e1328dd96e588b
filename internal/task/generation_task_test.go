package task

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotelab/rote-api/internal/domain"
	"github.com/rotelab/rote-api/internal/generation"
	"github.com/rotelab/rote-api/internal/store"
)

type fakeSubjectStore struct {
	subject  *domain.Subject
	statuses []domain.GenerationStatus
	updated  *domain.Subject
}

func (f *fakeSubjectStore) Create(ctx context.Context, subject *domain.Subject) error { return nil }

func (f *fakeSubjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	if f.subject == nil || f.subject.ID != id {
		return nil, store.ErrSubjectNotFound
	}
	return f.subject, nil
}

func (f *fakeSubjectStore) GetByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Subject, error) {
	return nil, nil
}

func (f *fakeSubjectStore) GetByStatus(
	ctx context.Context,
	status domain.GenerationStatus,
) ([]*domain.Subject, error) {
	if f.subject != nil && f.subject.Status == status {
		return []*domain.Subject{f.subject}, nil
	}
	return []*domain.Subject{}, nil
}

func (f *fakeSubjectStore) Update(ctx context.Context, subject *domain.Subject) error {
	f.updated = subject
	return nil
}

func (f *fakeSubjectStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.GenerationStatus,
) error {
	f.statuses = append(f.statuses, status)
	if f.subject != nil && f.subject.ID == id {
		f.subject.Status = status
	}
	return nil
}

func (f *fakeSubjectStore) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeSubjectStore) WithTx(tx *sql.Tx) store.SubjectStore           { return f }

type fakeCardStore struct {
	store.FlashcardStore
	created []*domain.Flashcard
	err     error
}

func (f *fakeCardStore) CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, cards...)
	return nil
}

func (f *fakeCardStore) WithTx(tx *sql.Tx) store.FlashcardStore { return f }

type fakeGenerator struct {
	cards    []generation.GeneratedCard
	plan     string
	cardsErr error
	planErr  error
}

func (f *fakeGenerator) GenerateCards(
	ctx context.Context,
	syllabus string,
) ([]generation.GeneratedCard, error) {
	if f.cardsErr != nil {
		return nil, f.cardsErr
	}
	return f.cards, nil
}

func (f *fakeGenerator) GenerateStudyPlan(ctx context.Context, syllabus string) (string, error) {
	if f.planErr != nil {
		return "", f.planErr
	}
	return f.plan, nil
}

func newDepsForTest(
	t *testing.T,
	subjects *fakeSubjectStore,
	cards *fakeCardStore,
	gen *fakeGenerator,
) (*GenerationTaskDeps, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &GenerationTaskDeps{
		DB:           db,
		SubjectStore: subjects,
		CardStore:    cards,
		Generator:    gen,
	}, mock
}

func pendingSubject(t *testing.T) *domain.Subject {
	t.Helper()

	subject, err := domain.NewSubject(uuid.New(), "Databases", "Week 1: SQL joins")
	require.NoError(t, err)
	return subject
}

func TestSyllabusGenerationTask_Execute(t *testing.T) {
	t.Run("generates cards and completes the subject", func(t *testing.T) {
		subject := pendingSubject(t)
		subjects := &fakeSubjectStore{subject: subject}
		cards := &fakeCardStore{}
		gen := &fakeGenerator{
			cards: []generation.GeneratedCard{
				{Question: "What is an inner join?", Answer: "Rows matching in both tables."},
				{Question: "What is a left join?", Answer: "All left rows plus matches."},
			},
			plan: "## Week 1\nStudy joins.",
		}
		deps, mock := newDepsForTest(t, subjects, cards, gen)

		mock.ExpectBegin()
		mock.ExpectCommit()

		task, err := NewSyllabusGenerationTask(subject.ID, deps)
		require.NoError(t, err)
		require.NoError(t, task.Execute(context.Background()))

		assert.Equal(t,
			[]domain.GenerationStatus{domain.GenerationStatusProcessing},
			subjects.statuses)
		require.NotNil(t, subjects.updated)
		assert.Equal(t, domain.GenerationStatusCompleted, subjects.updated.Status)
		assert.Equal(t, "## Week 1\nStudy joins.", subjects.updated.StudyPlan)

		require.Len(t, cards.created, 2)
		assert.Equal(t, subject.UserID, cards.created[0].UserID)
		assert.Equal(t, subject.ID, cards.created[0].SubjectID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("generator failure marks subject failed", func(t *testing.T) {
		subject := pendingSubject(t)
		subjects := &fakeSubjectStore{subject: subject}
		gen := &fakeGenerator{cardsErr: generation.ErrGenerationFailed}
		deps, _ := newDepsForTest(t, subjects, &fakeCardStore{}, gen)

		task, err := NewSyllabusGenerationTask(subject.ID, deps)
		require.NoError(t, err)

		err = task.Execute(context.Background())
		assert.ErrorIs(t, err, generation.ErrGenerationFailed)
		assert.Equal(t,
			[]domain.GenerationStatus{
				domain.GenerationStatusProcessing,
				domain.GenerationStatusFailed,
			},
			subjects.statuses)
	})

	t.Run("persistence failure marks subject failed", func(t *testing.T) {
		subject := pendingSubject(t)
		subjects := &fakeSubjectStore{subject: subject}
		cards := &fakeCardStore{err: errors.New("insert failed")}
		gen := &fakeGenerator{
			cards: []generation.GeneratedCard{{Question: "Q", Answer: "A"}},
			plan:  "plan",
		}
		deps, mock := newDepsForTest(t, subjects, cards, gen)

		mock.ExpectBegin()
		mock.ExpectRollback()

		task, err := NewSyllabusGenerationTask(subject.ID, deps)
		require.NoError(t, err)

		require.Error(t, task.Execute(context.Background()))
		assert.Contains(t, subjects.statuses, domain.GenerationStatusFailed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("completed subject is skipped", func(t *testing.T) {
		subject := pendingSubject(t)
		subject.MarkCompleted("done")
		subjects := &fakeSubjectStore{subject: subject}
		deps, _ := newDepsForTest(t, subjects, &fakeCardStore{}, &fakeGenerator{})

		task, err := NewSyllabusGenerationTask(subject.ID, deps)
		require.NoError(t, err)

		require.NoError(t, task.Execute(context.Background()))
		assert.Empty(t, subjects.statuses)
	})

	t.Run("missing subject returns error", func(t *testing.T) {
		deps, _ := newDepsForTest(t, &fakeSubjectStore{}, &fakeCardStore{}, &fakeGenerator{})

		task, err := NewSyllabusGenerationTask(uuid.New(), deps)
		require.NoError(t, err)

		err = task.Execute(context.Background())
		assert.ErrorIs(t, err, store.ErrSubjectNotFound)
	})
}

func TestGenerationEnqueuer_RecoverUnfinished(t *testing.T) {
	t.Run("requeues interrupted subjects as pending", func(t *testing.T) {
		subject := pendingSubject(t)
		subject.MarkProcessing()
		subjects := &fakeSubjectStore{subject: subject}
		deps, _ := newDepsForTest(t, subjects, &fakeCardStore{}, &fakeGenerator{})

		runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 10}, nil)
		enqueuer, err := NewGenerationEnqueuer(runner, deps)
		require.NoError(t, err)

		require.NoError(t, enqueuer.RecoverUnfinished(context.Background()))

		// The interrupted subject was reset and one task queued.
		assert.Contains(t, subjects.statuses, domain.GenerationStatusPending)
		assert.Len(t, runner.taskChan, 1)
	})
}
