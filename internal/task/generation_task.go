package task

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rotelab/rote-api/internal/domain"
	"github.com/rotelab/rote-api/internal/generation"
	"github.com/rotelab/rote-api/internal/platform/logger"
	"github.com/rotelab/rote-api/internal/store"
)

// GenerationTaskDeps bundles the dependencies a syllabus generation task
// needs to run. One instance is shared by all tasks.
type GenerationTaskDeps struct {
	DB           *sql.DB
	SubjectStore store.SubjectStore
	CardStore    store.FlashcardStore
	Generator    generation.Generator
	Logger       *slog.Logger
}

func (d *GenerationTaskDeps) validate() error {
	if d.DB == nil {
		return fmt.Errorf("db cannot be nil")
	}
	if d.SubjectStore == nil {
		return fmt.Errorf("subjectStore cannot be nil")
	}
	if d.CardStore == nil {
		return fmt.Errorf("cardStore cannot be nil")
	}
	if d.Generator == nil {
		return fmt.Errorf("generator cannot be nil")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return nil
}

// SyllabusGenerationTask generates flashcards and a study plan for one
// subject. It drives the subject's generation status through
// pending -> processing -> completed, or failed on error.
type SyllabusGenerationTask struct {
	id        uuid.UUID
	subjectID uuid.UUID
	deps      *GenerationTaskDeps
}

// Ensure SyllabusGenerationTask implements the Task interface
var _ Task = (*SyllabusGenerationTask)(nil)

// NewSyllabusGenerationTask creates a task for the given subject.
func NewSyllabusGenerationTask(
	subjectID uuid.UUID,
	deps *GenerationTaskDeps,
) (*SyllabusGenerationTask, error) {
	if subjectID == uuid.Nil {
		return nil, fmt.Errorf("subjectID cannot be nil")
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	return &SyllabusGenerationTask{
		id:        uuid.New(),
		subjectID: subjectID,
		deps:      deps,
	}, nil
}

// ID implements Task.ID
func (t *SyllabusGenerationTask) ID() uuid.UUID { return t.id }

// Type implements Task.Type
func (t *SyllabusGenerationTask) Type() string { return TaskTypeSyllabusGeneration }

// Execute implements Task.Execute
// It loads the subject, calls the generator for cards and a study plan,
// and commits cards plus the completed subject in one transaction. Any
// failure after the subject moved to processing marks it failed.
func (t *SyllabusGenerationTask) Execute(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, t.deps.Logger).With(
		slog.String("task_id", t.id.String()),
		slog.String("subject_id", t.subjectID.String()),
	)

	subject, err := t.deps.SubjectStore.GetByID(ctx, t.subjectID)
	if err != nil {
		return fmt.Errorf("failed to load subject: %w", err)
	}

	// Recovery can requeue subjects that already finished.
	if subject.Status == domain.GenerationStatusCompleted {
		log.Info("subject already completed, skipping generation")
		return nil
	}

	if err := t.deps.SubjectStore.UpdateStatus(ctx, subject.ID, domain.GenerationStatusProcessing); err != nil {
		return fmt.Errorf("failed to mark subject processing: %w", err)
	}

	cards, plan, err := t.generate(ctx, subject)
	if err != nil {
		t.markFailed(ctx, log, subject.ID)
		return err
	}

	err = store.RunInTransaction(ctx, t.deps.DB, func(ctx context.Context, tx *sql.Tx) error {
		if err := t.deps.CardStore.WithTx(tx).CreateMultiple(ctx, cards); err != nil {
			return fmt.Errorf("failed to save generated cards: %w", err)
		}

		subject.MarkCompleted(plan)
		if err := t.deps.SubjectStore.WithTx(tx).Update(ctx, subject); err != nil {
			return fmt.Errorf("failed to complete subject: %w", err)
		}
		return nil
	})
	if err != nil {
		t.markFailed(ctx, log, subject.ID)
		return err
	}

	log.Info("syllabus generation finished",
		slog.Int("card_count", len(cards)))
	return nil
}

func (t *SyllabusGenerationTask) generate(
	ctx context.Context,
	subject *domain.Subject,
) ([]*domain.Flashcard, string, error) {
	generated, err := t.deps.Generator.GenerateCards(ctx, subject.Syllabus)
	if err != nil {
		return nil, "", fmt.Errorf("card generation failed: %w", err)
	}

	cards, err := generation.ToFlashcards(generated, subject.UserID, subject.ID)
	if err != nil {
		return nil, "", err
	}

	plan, err := t.deps.Generator.GenerateStudyPlan(ctx, subject.Syllabus)
	if err != nil {
		return nil, "", fmt.Errorf("study plan generation failed: %w", err)
	}

	return cards, plan, nil
}

func (t *SyllabusGenerationTask) markFailed(ctx context.Context, log *slog.Logger, id uuid.UUID) {
	if err := t.deps.SubjectStore.UpdateStatus(ctx, id, domain.GenerationStatusFailed); err != nil {
		log.Error("failed to mark subject as failed",
			slog.String("error", err.Error()))
	}
}
