package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// GenerationStatus tracks the lifecycle of content generation for a subject's
// syllabus: submitted, picked up by a worker, and finished (or failed).
type GenerationStatus string

// Possible generation status values
const (
	GenerationStatusPending    GenerationStatus = "pending"
	GenerationStatusProcessing GenerationStatus = "processing"
	GenerationStatusCompleted  GenerationStatus = "completed"
	GenerationStatusFailed     GenerationStatus = "failed"
)

// IsValid reports whether the status is one of the recognized values.
func (gs GenerationStatus) IsValid() bool {
	switch gs {
	case GenerationStatusPending, GenerationStatusProcessing,
		GenerationStatusCompleted, GenerationStatusFailed:
		return true
	default:
		return false
	}
}

// Subject-specific validation errors
var (
	ErrSubjectIDEmpty     = errors.New("subject ID cannot be empty")
	ErrSubjectUserIDEmpty = errors.New("subject user ID cannot be empty")
	ErrSubjectNameEmpty   = errors.New("subject name cannot be empty")
	ErrSyllabusEmpty      = errors.New("subject syllabus cannot be empty")
)

// Subject is a course of study owned by a user. Its syllabus text is the
// input for flashcard, quiz, and study-plan generation.
type Subject struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Name      string           `json:"name"`
	Syllabus  string           `json:"syllabus"`
	Status    GenerationStatus `json:"status"`
	StudyPlan string           `json:"study_plan,omitempty"` // Generated, empty until generation completes
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewSubject creates a new Subject in the pending generation state.
// Returns an error if validation fails.
func NewSubject(userID uuid.UUID, name, syllabus string) (*Subject, error) {
	now := time.Now().UTC()
	subject := &Subject{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Syllabus:  syllabus,
		Status:    GenerationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := subject.Validate(); err != nil {
		return nil, err
	}

	return subject, nil
}

// Validate checks if the Subject has valid data.
// Returns an error if any field fails validation.
func (s *Subject) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSubjectIDEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrSubjectUserIDEmpty
	}

	if s.Name == "" {
		return ErrSubjectNameEmpty
	}

	if s.Syllabus == "" {
		return ErrSyllabusEmpty
	}

	if !s.Status.IsValid() {
		return ErrInvalidGenerationStatus
	}

	return nil
}

// MarkProcessing transitions the subject into the processing state.
func (s *Subject) MarkProcessing() {
	s.Status = GenerationStatusProcessing
	s.UpdatedAt = time.Now().UTC()
}

// MarkCompleted transitions the subject into the completed state and records
// the generated study plan.
func (s *Subject) MarkCompleted(studyPlan string) {
	s.Status = GenerationStatusCompleted
	s.StudyPlan = studyPlan
	s.UpdatedAt = time.Now().UTC()
}

// MarkFailed transitions the subject into the failed state.
func (s *Subject) MarkFailed() {
	s.Status = GenerationStatusFailed
	s.UpdatedAt = time.Now().UTC()
}
