package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/internal/activity"
	"github.com/kiranshivaraju/hiretrack/internal/store"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

// maxSlugAttempts bounds the numeric suffixes tried for a derived slug.
const maxSlugAttempts = 50

// JobInput is the body of a job create.
type JobInput struct {
	Title        string   `json:"title"`
	Slug         string   `json:"slug"`
	Status       string   `json:"status"`
	Tags         []string `json:"tags"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	Location     string   `json:"location"`
	Salary       string   `json:"salary"`
}

// JobPatch lists the fields a job update may touch. Nil fields are left alone.
// Order is changed only through Reorder.
type JobPatch struct {
	Title        *string   `json:"title"`
	Slug         *string   `json:"slug"`
	Status       *string   `json:"status"`
	Tags         *[]string `json:"tags"`
	Description  *string   `json:"description"`
	Requirements *[]string `json:"requirements"`
	Location     *string   `json:"location"`
	Salary       *string   `json:"salary"`
}

type JobService struct {
	store    store.Store
	activity activity.Recorder
	now      clock

	// serializes order assignment so concurrent creates and reorders stay dense
	orderMu sync.Mutex
}

func NewJobService(st store.Store, rec activity.Recorder) *JobService {
	return &JobService{store: st, activity: rec, now: utcNow}
}

func (s *JobService) List(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error) {
	if filter.Status != "" && !models.ValidJobStatus(filter.Status) {
		return nil, 0, invalid("unknown status %q", filter.Status)
	}
	switch filter.Sort {
	case "", store.SortOrder, store.SortTitle, store.SortCreated:
	default:
		return nil, 0, invalid("unknown sort %q", filter.Sort)
	}
	return s.store.ListJobs(ctx, filter)
}

func (s *JobService) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return s.store.GetJob(ctx, id)
}

func (s *JobService) Create(ctx context.Context, in JobInput) (*models.Job, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	status := in.Status
	if status == "" {
		status = models.JobStatusActive
	}
	if !models.ValidJobStatus(status) {
		return nil, invalid("unknown status %q", status)
	}

	explicitSlug := strings.TrimSpace(in.Slug) != ""
	base := models.Slugify(in.Slug)
	if !explicitSlug {
		base = models.Slugify(title)
	}
	if base == "" {
		return nil, invalid("slug must contain letters or digits")
	}

	s.orderMu.Lock()
	defer s.orderMu.Unlock()

	maxOrder, err := s.store.MaxJobOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading max order: %w", err)
	}

	now := s.now()
	job := &models.Job{
		ID:           uuid.New(),
		Title:        title,
		Status:       status,
		Tags:         cleanList(in.Tags),
		Order:        maxOrder + 1,
		Description:  in.Description,
		Requirements: cleanList(in.Requirements),
		Location:     in.Location,
		Salary:       in.Salary,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for attempt := 1; ; attempt++ {
		job.Slug = base
		if attempt > 1 {
			job.Slug = fmt.Sprintf("%s-%d", base, attempt)
		}
		err = s.store.CreateJob(ctx, job)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrDuplicateKey) || explicitSlug || attempt >= maxSlugAttempts {
			return nil, fmt.Errorf("creating job: %w", err)
		}
	}

	s.activity.Record(ctx, models.ActivityJobCreated, "Job created",
		fmt.Sprintf("%s was posted", job.Title), job.ID, models.EntityJob)
	return job, nil
}

func (s *JobService) Update(ctx context.Context, id uuid.UUID, patch JobPatch) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	prevStatus := job.Status

	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return nil, invalid("title cannot be empty")
		}
		job.Title = t
	}
	if patch.Slug != nil {
		slug := models.Slugify(*patch.Slug)
		if slug == "" {
			return nil, invalid("slug must contain letters or digits")
		}
		job.Slug = slug
	}
	if patch.Status != nil {
		if !models.ValidJobStatus(*patch.Status) {
			return nil, invalid("unknown status %q", *patch.Status)
		}
		job.Status = *patch.Status
	}
	if patch.Tags != nil {
		job.Tags = cleanList(*patch.Tags)
	}
	if patch.Description != nil {
		job.Description = *patch.Description
	}
	if patch.Requirements != nil {
		job.Requirements = cleanList(*patch.Requirements)
	}
	if patch.Location != nil {
		job.Location = *patch.Location
	}
	if patch.Salary != nil {
		job.Salary = *patch.Salary
	}
	job.UpdatedAt = s.now()

	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("updating job: %w", err)
	}

	if prevStatus != job.Status && job.Status == models.JobStatusArchived {
		s.activity.Record(ctx, models.ActivityJobArchived, "Job archived",
			fmt.Sprintf("%s was archived", job.Title), job.ID, models.EntityJob)
	} else {
		s.activity.Record(ctx, models.ActivityJobUpdated, "Job updated",
			fmt.Sprintf("%s was updated", job.Title), job.ID, models.EntityJob)
	}
	return job, nil
}

// Reorder moves the job to toOrder. Targets outside 1..N are clamped.
func (s *JobService) Reorder(ctx context.Context, id uuid.UUID, toOrder int) (*models.Job, error) {
	s.orderMu.Lock()
	defer s.orderMu.Unlock()

	before, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	job, err := s.store.ReorderJob(ctx, id, toOrder)
	if err != nil {
		return nil, fmt.Errorf("reordering job: %w", err)
	}

	if before.Order != job.Order {
		s.activity.Record(ctx, models.ActivityJobReordered, "Job reordered",
			fmt.Sprintf("%s moved from position %d to %d", job.Title, before.Order, job.Order), job.ID, models.EntityJob)
	}
	return job, nil
}

func (s *JobService) Delete(ctx context.Context, id uuid.UUID) error {
	s.orderMu.Lock()
	defer s.orderMu.Unlock()

	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteJob(ctx, id); err != nil {
		return fmt.Errorf("deleting job: %w", err)
	}

	s.activity.Record(ctx, models.ActivityJobDeleted, "Job deleted",
		fmt.Sprintf("%s was removed", job.Title), job.ID, models.EntityJob)
	return nil
}
