package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	QuestionSingleChoice = "single-choice"
	QuestionMultiChoice  = "multi-choice"
	QuestionShortText    = "short-text"
	QuestionLongText     = "long-text"
	QuestionNumeric      = "numeric"
	QuestionFileUpload   = "file-upload"
)

// ValidQuestionType reports whether t is a supported question type.
func ValidQuestionType(t string) bool {
	switch t {
	case QuestionSingleChoice, QuestionMultiChoice, QuestionShortText,
		QuestionLongText, QuestionNumeric, QuestionFileUpload:
		return true
	}
	return false
}

// Assessment is the questionnaire attached to a job. At most one is expected per
// job; lookups are by JobID.
type Assessment struct {
	ID          uuid.UUID `db:"id"          json:"id"`
	JobID       uuid.UUID `db:"job_id"      json:"jobId"`
	Title       string    `db:"title"       json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Sections    []Section `db:"sections"    json:"sections"`
	CreatedAt   time.Time `db:"created_at"  json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updatedAt"`
}

type Section struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

type Question struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Label      string     `json:"label"`
	Options    []string   `json:"options,omitempty"`
	Validation Validation `json:"validation"`
	Condition  *Condition `json:"condition,omitempty"`
}

// Validation holds per-question constraints. Length bounds apply to text answers,
// Min/Max to numeric answers.
type Validation struct {
	Required  bool     `json:"required,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

// Condition shows a question only when QuestionID's answer equals Equals.
type Condition struct {
	QuestionID string `json:"questionId"`
	Equals     any    `json:"equals"`
}

// Questions returns every question across all sections in display order.
func (a *Assessment) Questions() []Question {
	var out []Question
	for _, s := range a.Sections {
		out = append(out, s.Questions...)
	}
	return out
}

// AssessmentResponse is an append-only submission of answers.
type AssessmentResponse struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	AssessmentID uuid.UUID `db:"assessment_id" json:"assessmentId"`
	JobID        uuid.UUID `db:"job_id"        json:"jobId"`
	CandidateID  uuid.UUID `db:"candidate_id"  json:"candidateId"`
	Answers      []Answer  `db:"answers"       json:"answers"`
	SubmittedAt  time.Time `db:"submitted_at"  json:"submittedAt"`
	Score        *float64  `db:"score"         json:"score,omitempty"`
}

type Answer struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}
