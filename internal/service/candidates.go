package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/internal/activity"
	"github.com/kiranshivaraju/hiretrack/internal/store"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

// CandidateInput is the body of a candidate create.
type CandidateInput struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Stage       string    `json:"stage"`
	JobID       uuid.UUID `json:"jobId"`
	Phone       string    `json:"phone"`
	Resume      string    `json:"resume"`
	CoverLetter string    `json:"coverLetter"`
	Notes       []string  `json:"notes"`
}

// CandidatePatch lists the fields a candidate update may touch. TimelineNote
// annotates the timeline entry added when Stage changes.
type CandidatePatch struct {
	Name         *string    `json:"name"`
	Email        *string    `json:"email"`
	Stage        *string    `json:"stage"`
	JobID        *uuid.UUID `json:"jobId"`
	Phone        *string    `json:"phone"`
	Resume       *string    `json:"resume"`
	CoverLetter  *string    `json:"coverLetter"`
	Notes        *[]string  `json:"notes"`
	TimelineNote *string    `json:"timelineNote"`
}

type CandidateService struct {
	store    store.Store
	activity activity.Recorder
	now      clock
}

func NewCandidateService(st store.Store, rec activity.Recorder) *CandidateService {
	return &CandidateService{store: st, activity: rec, now: utcNow}
}

func (s *CandidateService) List(ctx context.Context, filter store.CandidateFilter) ([]*models.Candidate, int, error) {
	if filter.Stage != "" && !models.ValidStage(filter.Stage) {
		return nil, 0, invalid("unknown stage %q", filter.Stage)
	}
	return s.store.ListCandidates(ctx, filter)
}

func (s *CandidateService) Get(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	return s.store.GetCandidate(ctx, id)
}

// Timeline returns the candidate's stage history, oldest first.
func (s *CandidateService) Timeline(ctx context.Context, id uuid.UUID) ([]models.TimelineEntry, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Timeline == nil {
		return []models.TimelineEntry{}, nil
	}
	return c.Timeline, nil
}

func (s *CandidateService) requireJob(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return invalid("jobId is required")
	}
	if _, err := s.store.GetJob(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalid("job %s does not exist", id)
		}
		return fmt.Errorf("looking up job: %w", err)
	}
	return nil
}

func (s *CandidateService) Create(ctx context.Context, in CandidateInput) (*models.Candidate, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	email := strings.TrimSpace(in.Email)
	if !validEmail(email) {
		return nil, invalid("email %q is not valid", in.Email)
	}
	stage := in.Stage
	if stage == "" {
		stage = models.StageApplied
	}
	if !models.ValidStage(stage) {
		return nil, invalid("unknown stage %q", stage)
	}
	if err := s.requireJob(ctx, in.JobID); err != nil {
		return nil, err
	}

	now := s.now()
	c := &models.Candidate{
		ID:          uuid.New(),
		Name:        name,
		Email:       email,
		Stage:       stage,
		JobID:       in.JobID,
		Phone:       in.Phone,
		Resume:      in.Resume,
		CoverLetter: in.CoverLetter,
		Notes:       cleanList(in.Notes),
		Timeline:    []models.TimelineEntry{{Stage: stage, Timestamp: now, Note: "Candidate created"}},
		AppliedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateCandidate(ctx, c); err != nil {
		return nil, fmt.Errorf("creating candidate: %w", err)
	}

	s.activity.Record(ctx, models.ActivityCandidateCreated, "Candidate added",
		fmt.Sprintf("%s applied", c.Name), c.ID, models.EntityCandidate)
	return c, nil
}

// Update applies patch. A stage change appends a timeline entry so the last
// entry always matches the current stage; repeating the current stage adds
// nothing.
func (s *CandidateService) Update(ctx context.Context, id uuid.UUID, patch CandidatePatch) (*models.Candidate, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	prevStage := c.Stage

	if patch.Name != nil {
		n := strings.TrimSpace(*patch.Name)
		if n == "" {
			return nil, invalid("name cannot be empty")
		}
		c.Name = n
	}
	if patch.Email != nil {
		e := strings.TrimSpace(*patch.Email)
		if !validEmail(e) {
			return nil, invalid("email %q is not valid", *patch.Email)
		}
		c.Email = e
	}
	if patch.Stage != nil {
		if !models.ValidStage(*patch.Stage) {
			return nil, invalid("unknown stage %q", *patch.Stage)
		}
		c.Stage = *patch.Stage
	}
	if patch.JobID != nil {
		if err := s.requireJob(ctx, *patch.JobID); err != nil {
			return nil, err
		}
		c.JobID = *patch.JobID
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Resume != nil {
		c.Resume = *patch.Resume
	}
	if patch.CoverLetter != nil {
		c.CoverLetter = *patch.CoverLetter
	}
	if patch.Notes != nil {
		c.Notes = cleanList(*patch.Notes)
	}

	now := s.now()
	stageChanged := c.Stage != prevStage
	if stageChanged {
		entry := models.TimelineEntry{Stage: c.Stage, Timestamp: now}
		if patch.TimelineNote != nil {
			entry.Note = *patch.TimelineNote
		}
		c.Timeline = append(c.Timeline, entry)
	}
	c.UpdatedAt = now

	if err := s.store.UpdateCandidate(ctx, c); err != nil {
		return nil, fmt.Errorf("updating candidate: %w", err)
	}

	if stageChanged {
		s.activity.Record(ctx, models.ActivityCandidateStageChanged, "Stage changed",
			fmt.Sprintf("%s moved from %s to %s", c.Name, prevStage, c.Stage), c.ID, models.EntityCandidate)
	} else {
		s.activity.Record(ctx, models.ActivityCandidateUpdated, "Candidate updated",
			fmt.Sprintf("%s was updated", c.Name), c.ID, models.EntityCandidate)
	}
	return c, nil
}
