package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rotelab/rote-api/internal/domain"
	"github.com/rotelab/rote-api/internal/platform/logger"
	"github.com/rotelab/rote-api/internal/service/study"
)

// GenerationEnqueuer submits syllabus generation tasks to a Runner. It is
// the production implementation of study.GenerationEnqueuer.
type GenerationEnqueuer struct {
	runner *Runner
	deps   *GenerationTaskDeps
}

// Ensure GenerationEnqueuer implements study.GenerationEnqueuer
var _ study.GenerationEnqueuer = (*GenerationEnqueuer)(nil)

// NewGenerationEnqueuer creates a GenerationEnqueuer bound to the given
// runner and task dependencies.
func NewGenerationEnqueuer(runner *Runner, deps *GenerationTaskDeps) (*GenerationEnqueuer, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	return &GenerationEnqueuer{
		runner: runner,
		deps:   deps,
	}, nil
}

// EnqueueGeneration implements study.GenerationEnqueuer.EnqueueGeneration
func (e *GenerationEnqueuer) EnqueueGeneration(ctx context.Context, subjectID uuid.UUID) error {
	t, err := NewSyllabusGenerationTask(subjectID, e.deps)
	if err != nil {
		return err
	}

	return e.runner.Submit(t)
}

// RecoverUnfinished requeues generation for subjects left in the pending
// or processing state by a previous run. Processing subjects are reset to
// pending first so their state reflects reality.
func (e *GenerationEnqueuer) RecoverUnfinished(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, e.deps.Logger)

	pending, err := e.deps.SubjectStore.GetByStatus(ctx, domain.GenerationStatusPending)
	if err != nil {
		return fmt.Errorf("failed to load pending subjects: %w", err)
	}

	processing, err := e.deps.SubjectStore.GetByStatus(ctx, domain.GenerationStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to load processing subjects: %w", err)
	}

	log.Info("recovering unfinished generation work",
		slog.Int("pending_count", len(pending)),
		slog.Int("processing_count", len(processing)))

	for _, subject := range processing {
		if err := e.deps.SubjectStore.UpdateStatus(ctx, subject.ID, domain.GenerationStatusPending); err != nil {
			log.Error("failed to reset interrupted subject",
				slog.String("error", err.Error()),
				slog.String("subject_id", subject.ID.String()))
			continue
		}
		pending = append(pending, subject)
	}

	for _, subject := range pending {
		if err := e.EnqueueGeneration(ctx, subject.ID); err != nil {
			log.Error("failed to requeue subject generation",
				slog.String("error", err.Error()),
				slog.String("subject_id", subject.ID.String()))
		}
	}

	return nil
}
