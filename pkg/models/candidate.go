package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StageApplied  = "applied"
	StageScreen   = "screen"
	StageTech     = "tech"
	StageOffer    = "offer"
	StageHired    = "hired"
	StageRejected = "rejected"
)

// StageOrder is the hiring funnel in order. Rejected sits outside the funnel and
// can follow any stage.
var StageOrder = []string{StageApplied, StageScreen, StageTech, StageOffer, StageHired}

// ValidStage reports whether s is a known pipeline stage.
func ValidStage(s string) bool {
	if s == StageRejected {
		return true
	}
	for _, st := range StageOrder {
		if st == s {
			return true
		}
	}
	return false
}

// Candidate is an applicant in the pipeline. JobID is a weak reference; deleting the
// job does not cascade.
type Candidate struct {
	ID          uuid.UUID       `db:"id"           json:"id"`
	Name        string          `db:"name"         json:"name"`
	Email       string          `db:"email"        json:"email"`
	Stage       string          `db:"stage"        json:"stage"`
	JobID       uuid.UUID       `db:"job_id"       json:"jobId"`
	Phone       string          `db:"phone"        json:"phone,omitempty"`
	Resume      string          `db:"resume"       json:"resume,omitempty"`
	CoverLetter string          `db:"cover_letter" json:"coverLetter,omitempty"`
	Notes       []string        `db:"notes"        json:"notes"`
	Timeline    []TimelineEntry `db:"timeline"     json:"timeline"`
	AppliedAt   time.Time       `db:"applied_at"   json:"appliedAt"`
	UpdatedAt   time.Time       `db:"updated_at"   json:"updatedAt"`
}

// TimelineEntry records a candidate reaching a stage.
type TimelineEntry struct {
	Stage     string    `json:"stage"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}
