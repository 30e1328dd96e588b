package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/rotelab/rote-api/internal/config"
	"github.com/rotelab/rote-api/internal/domain/sm2"
	"github.com/rotelab/rote-api/internal/generation"
	"github.com/rotelab/rote-api/internal/platform/gemini"
	"github.com/rotelab/rote-api/internal/platform/postgres"
	"github.com/rotelab/rote-api/internal/service/auth"
	"github.com/rotelab/rote-api/internal/service/review"
	"github.com/rotelab/rote-api/internal/service/study"
	"github.com/rotelab/rote-api/internal/store"
	"github.com/rotelab/rote-api/internal/task"
)

// application holds the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore    store.UserStore
	subjectStore store.SubjectStore
	cardStore    store.FlashcardStore

	// Services
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	generator        generation.Generator
	scheduler        sm2.Service
	studyService     study.StudyService
	reviewService    review.ReviewService

	// Background generation
	taskRunner *task.Runner
	enqueuer   *task.GenerationEnqueuer
}

// newApplication creates an application instance with all dependencies
// initialized, the task runner started, and interrupted generation work
// requeued.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost, logger)
	app.subjectStore = postgres.NewPostgresSubjectStore(db, logger)
	app.cardStore = postgres.NewPostgresFlashcardStore(db, logger)

	app.generator, err = gemini.NewGeminiGenerator(
		ctx,
		logger.With(slog.String("component", "llm_generator")),
		cfg.LLM,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	logger.Info("LLM generator initialized", slog.String("model", cfg.LLM.ModelName))

	app.scheduler = sm2.NewDefaultService()

	app.taskRunner = task.NewRunner(task.RunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, logger)

	app.enqueuer, err = task.NewGenerationEnqueuer(app.taskRunner, &task.GenerationTaskDeps{
		DB:           db,
		SubjectStore: app.subjectStore,
		CardStore:    app.cardStore,
		Generator:    app.generator,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generation enqueuer: %w", err)
	}

	app.studyService = study.NewStudyService(app.subjectStore, app.cardStore, app.enqueuer, logger)
	app.reviewService = review.NewReviewService(db, app.cardStore, app.subjectStore, app.scheduler, logger)

	app.taskRunner.Start()

	// Subjects stranded mid-generation by a previous run are requeued
	// before the server accepts traffic.
	if err := app.enqueuer.RecoverUnfinished(ctx); err != nil {
		return nil, fmt.Errorf("failed to recover unfinished generation work: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection",
				slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
