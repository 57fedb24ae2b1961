package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActivityJobCreated            = "job_created"
	ActivityJobUpdated            = "job_updated"
	ActivityJobArchived           = "job_archived"
	ActivityJobReordered          = "job_reordered"
	ActivityJobDeleted            = "job_deleted"
	ActivityCandidateCreated      = "candidate_created"
	ActivityCandidateUpdated      = "candidate_updated"
	ActivityCandidateStageChanged = "candidate_stage_changed"
	ActivityAssessmentSaved       = "assessment_saved"
	ActivityAssessmentSubmitted   = "assessment_submitted"
)

const (
	EntityJob        = "job"
	EntityCandidate  = "candidate"
	EntityAssessment = "assessment"
)

// Activity is a human-readable entry in the recent-events feed.
type Activity struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EntityID    uuid.UUID `json:"entityId"`
	EntityType  string    `json:"entityType"`
	Timestamp   time.Time `json:"timestamp"`
}
