package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/internal/activity"
	"github.com/kiranshivaraju/hiretrack/internal/assessment"
	"github.com/kiranshivaraju/hiretrack/internal/store"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

// AssessmentDraft is the builder's payload for a job's assessment.
type AssessmentDraft struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Sections    []models.Section `json:"sections"`
}

// Submission is a candidate's answers to a job's assessment.
type Submission struct {
	CandidateID uuid.UUID       `json:"candidateId"`
	Answers     []models.Answer `json:"answers"`
}

type AssessmentService struct {
	store    store.Store
	activity activity.Recorder
	now      clock
}

func NewAssessmentService(st store.Store, rec activity.Recorder) *AssessmentService {
	return &AssessmentService{store: st, activity: rec, now: utcNow}
}

func (s *AssessmentService) List(ctx context.Context) ([]*models.Assessment, error) {
	return s.store.ListAssessments(ctx)
}

func (s *AssessmentService) GetByJob(ctx context.Context, jobID uuid.UUID) (*models.Assessment, error) {
	return s.store.GetAssessmentByJob(ctx, jobID)
}

// Upsert saves the draft as the job's assessment, replacing any existing one
// while keeping its id and creation time. created reports whether it is new.
func (s *AssessmentService) Upsert(ctx context.Context, jobID uuid.UUID, draft AssessmentDraft) (a *models.Assessment, created bool, err error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	a = &models.Assessment{
		ID:          uuid.New(),
		JobID:       jobID,
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
		Sections:    draft.Sections,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if a.Sections == nil {
		a.Sections = []models.Section{}
	}
	if err := assessment.CheckDraft(a); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	existing, err := s.store.GetAssessmentByJob(ctx, jobID)
	switch {
	case err == nil:
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
	case errors.Is(err, store.ErrNotFound):
		created = true
	default:
		return nil, false, fmt.Errorf("looking up assessment: %w", err)
	}

	if err := s.store.UpsertAssessment(ctx, a); err != nil {
		return nil, false, fmt.Errorf("saving assessment: %w", err)
	}

	s.activity.Record(ctx, models.ActivityAssessmentSaved, "Assessment saved",
		fmt.Sprintf("Assessment for %s was saved", job.Title), a.ID, models.EntityAssessment)
	return a, created, nil
}

// Submit validates and stores a submission for the job's assessment. Hidden
// and empty answers are dropped before storing.
func (s *AssessmentService) Submit(ctx context.Context, jobID uuid.UUID, sub Submission) (*models.AssessmentResponse, error) {
	a, err := s.store.GetAssessmentByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if sub.CandidateID == uuid.Nil {
		return nil, invalid("candidateId is required")
	}
	cand, err := s.store.GetCandidate(ctx, sub.CandidateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalid("candidate %s does not exist", sub.CandidateID)
		}
		return nil, fmt.Errorf("looking up candidate: %w", err)
	}

	kept, err := assessment.Validate(ctx, a, sub.Answers)
	if err != nil {
		if errors.Is(err, assessment.ErrInvalid) {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		return nil, err
	}
	if kept == nil {
		kept = []models.Answer{}
	}

	score := assessment.Score(a, kept)
	resp := &models.AssessmentResponse{
		ID:           uuid.New(),
		AssessmentID: a.ID,
		JobID:        jobID,
		CandidateID:  sub.CandidateID,
		Answers:      kept,
		SubmittedAt:  s.now(),
		Score:        &score,
	}
	if err := s.store.CreateResponse(ctx, resp); err != nil {
		return nil, fmt.Errorf("saving response: %w", err)
	}

	s.activity.Record(ctx, models.ActivityAssessmentSubmitted, "Assessment submitted",
		fmt.Sprintf("%s submitted %s", cand.Name, a.Title), a.ID, models.EntityAssessment)
	return resp, nil
}

// Responses lists submissions for the job's assessment, oldest first.
func (s *AssessmentService) Responses(ctx context.Context, jobID uuid.UUID) ([]*models.AssessmentResponse, error) {
	a, err := s.store.GetAssessmentByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListResponses(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*models.AssessmentResponse{}
	}
	return out, nil
}
