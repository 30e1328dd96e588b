package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rotelab/rote-api/internal/api/shared"
	"github.com/rotelab/rote-api/internal/domain"
	"github.com/rotelab/rote-api/internal/platform/logger"
	"github.com/rotelab/rote-api/internal/redact"
	"github.com/rotelab/rote-api/internal/service/study"
)

// CreateSubjectRequest represents the request body for creating a subject
type CreateSubjectRequest struct {
	Name     string `json:"name"     validate:"required,min=1,max=200"`
	Syllabus string `json:"syllabus" validate:"required,min=1"`
}

// SubjectResponse represents the response data for a subject
type SubjectResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Syllabus  string    `json:"syllabus"`
	Status    string    `json:"status"`
	StudyPlan string    `json:"study_plan,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubjectHandler handles subject-related HTTP requests
type SubjectHandler struct {
	studyService study.StudyService
	logger       *slog.Logger
}

// NewSubjectHandler creates a new SubjectHandler
func NewSubjectHandler(studyService study.StudyService, logger *slog.Logger) *SubjectHandler {
	if studyService == nil {
		panic("studyService cannot be nil for SubjectHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for SubjectHandler")
	}

	return &SubjectHandler{
		studyService: studyService,
		logger:       logger.With(slog.String("component", "subject_handler")),
	}
}

// CreateSubject handles POST /api/subjects requests. Flashcard and study
// plan generation runs asynchronously, so the response is 202 Accepted with
// the subject in the pending state.
func (h *SubjectHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateSubjectRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	subject, err := h.studyService.CreateSubject(r.Context(), userID, req.Name, req.Syllabus)
	if err != nil {
		log.Error("failed to create subject",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		respondServiceError(w, r, err)
		return
	}

	log.Debug("subject created",
		slog.String("subject_id", subject.ID.String()),
		slog.String("user_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusAccepted, subjectToResponse(subject))
}

// ListSubjects handles GET /api/subjects requests.
func (h *SubjectHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	subjects, err := h.studyService.ListSubjects(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	responses := make([]SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		responses = append(responses, subjectToResponse(subject))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetSubject handles GET /api/subjects/{id} requests.
func (h *SubjectHandler) GetSubject(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	subjectID, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid subject ID in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid subject ID format")
		return
	}

	subject, err := h.studyService.GetSubject(r.Context(), userID, subjectID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, subjectToResponse(subject))
}

// ListSubjectCards handles GET /api/subjects/{id}/flashcards requests.
func (h *SubjectHandler) ListSubjectCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	subjectID, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid subject ID in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid subject ID format")
		return
	}

	cards, err := h.studyService.ListCards(r.Context(), userID, subjectID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardsToResponses(cards, time.Now().UTC()))
}

// DeleteSubject handles DELETE /api/subjects/{id} requests.
func (h *SubjectHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	subjectID, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid subject ID in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid subject ID format")
		return
	}

	if err := h.studyService.DeleteSubject(r.Context(), userID, subjectID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Debug("subject deleted",
		slog.String("subject_id", subjectID.String()),
		slog.String("user_id", userID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// subjectToResponse converts a domain.Subject to a SubjectResponse
func subjectToResponse(subject *domain.Subject) SubjectResponse {
	return SubjectResponse{
		ID:        subject.ID.String(),
		UserID:    subject.UserID.String(),
		Name:      subject.Name,
		Syllabus:  subject.Syllabus,
		Status:    string(subject.Status),
		StudyPlan: subject.StudyPlan,
		CreatedAt: subject.CreatedAt,
		UpdatedAt: subject.UpdatedAt,
	}
}
