package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rotelab/rote-api/internal/api"
	apimw "github.com/rotelab/rote-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimw.TraceMiddleware)

	tokenLifetime := time.Duration(app.config.Auth.TokenLifetimeMinutes) * time.Minute
	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		tokenLifetime,
	)
	subjectHandler := api.NewSubjectHandler(app.studyService, app.logger)
	flashcardHandler := api.NewFlashcardHandler(app.reviewService, app.logger)
	authMiddleware := apimw.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Subject endpoints
			r.Post("/subjects", subjectHandler.CreateSubject)
			r.Get("/subjects", subjectHandler.ListSubjects)
			r.Get("/subjects/{id}", subjectHandler.GetSubject)
			r.Get("/subjects/{id}/flashcards", subjectHandler.ListSubjectCards)
			r.Delete("/subjects/{id}", subjectHandler.DeleteSubject)

			// Flashcard review endpoints
			r.Get("/flashcards/due", flashcardHandler.DueCards)
			r.Post("/flashcards/{id}/review", flashcardHandler.SubmitReview)
			r.Delete("/flashcards/{id}", flashcardHandler.DeleteCard)

			// Study progress
			r.Get("/dashboard", flashcardHandler.GetDashboard)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
