package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/internal/service"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

// Page is one page of a list endpoint.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

type JobQuery struct {
	Search   string
	Status   string
	Sort     string
	Page     int
	PageSize int
}

type CandidateQuery struct {
	Search   string
	Stage    string
	JobID    uuid.UUID
	Page     int
	PageSize int
}

// Health is the body of GET /api/health.
type Health struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

func (c *HTTPClient) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/api/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ─── jobs ────────────────────────────────────────────────────────────────────

func (c *HTTPClient) ListJobs(ctx context.Context, q JobQuery) (*Page[models.Job], error) {
	var p Page[models.Job]
	path := "/api/jobs" + listQuery(map[string]string{
		"search": q.Search, "status": q.Status, "sort": q.Sort,
	}, q.Page, q.PageSize)
	if err := c.do(ctx, http.MethodGet, path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var j models.Job
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+id.String(), &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (c *HTTPClient) CreateJob(ctx context.Context, in service.JobInput) (*models.Job, error) {
	var j models.Job
	if err := c.mutate(ctx, http.MethodPost, "/api/jobs", in, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (c *HTTPClient) UpdateJob(ctx context.Context, id uuid.UUID, patch service.JobPatch) (*models.Job, error) {
	var j models.Job
	if err := c.mutate(ctx, http.MethodPatch, "/api/jobs/"+id.String(), patch, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// ReorderJob moves the job to toOrder. fromOrder is sent only when positive.
func (c *HTTPClient) ReorderJob(ctx context.Context, id uuid.UUID, fromOrder, toOrder int) (*models.Job, error) {
	var j models.Job
	body := map[string]int{"toOrder": toOrder}
	if fromOrder > 0 {
		body["fromOrder"] = fromOrder
	}
	if err := c.mutate(ctx, http.MethodPatch, fmt.Sprintf("/api/jobs/%s/reorder", id), body, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (c *HTTPClient) DeleteJob(ctx context.Context, id uuid.UUID) error {
	return c.mutate(ctx, http.MethodDelete, "/api/jobs/"+id.String(), nil, nil)
}

// ─── candidates ──────────────────────────────────────────────────────────────

func (c *HTTPClient) ListCandidates(ctx context.Context, q CandidateQuery) (*Page[models.Candidate], error) {
	params := map[string]string{"search": q.Search, "stage": q.Stage}
	if q.JobID != uuid.Nil {
		params["jobId"] = q.JobID.String()
	}
	var p Page[models.Candidate]
	if err := c.do(ctx, http.MethodGet, "/api/candidates"+listQuery(params, q.Page, q.PageSize), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) GetCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	var cand models.Candidate
	if err := c.do(ctx, http.MethodGet, "/api/candidates/"+id.String(), &cand); err != nil {
		return nil, err
	}
	return &cand, nil
}

func (c *HTTPClient) CreateCandidate(ctx context.Context, in service.CandidateInput) (*models.Candidate, error) {
	var cand models.Candidate
	if err := c.mutate(ctx, http.MethodPost, "/api/candidates", in, &cand); err != nil {
		return nil, err
	}
	return &cand, nil
}

func (c *HTTPClient) UpdateCandidate(ctx context.Context, id uuid.UUID, patch service.CandidatePatch) (*models.Candidate, error) {
	var cand models.Candidate
	if err := c.mutate(ctx, http.MethodPatch, "/api/candidates/"+id.String(), patch, &cand); err != nil {
		return nil, err
	}
	return &cand, nil
}

func (c *HTTPClient) CandidateTimeline(ctx context.Context, id uuid.UUID) ([]models.TimelineEntry, error) {
	var tl []models.TimelineEntry
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/candidates/%s/timeline", id), &tl); err != nil {
		return nil, err
	}
	return tl, nil
}

// ─── assessments ─────────────────────────────────────────────────────────────

func (c *HTTPClient) ListAssessments(ctx context.Context) ([]models.Assessment, error) {
	var list []models.Assessment
	if err := c.do(ctx, http.MethodGet, "/api/assessments", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) GetAssessment(ctx context.Context, jobID uuid.UUID) (*models.Assessment, error) {
	var a models.Assessment
	if err := c.do(ctx, http.MethodGet, "/api/assessments/"+jobID.String(), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) PutAssessment(ctx context.Context, jobID uuid.UUID, draft service.AssessmentDraft) (*models.Assessment, error) {
	var a models.Assessment
	if err := c.mutate(ctx, http.MethodPut, "/api/assessments/"+jobID.String(), draft, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) SubmitAssessment(ctx context.Context, jobID uuid.UUID, sub service.Submission) (*models.AssessmentResponse, error) {
	var r models.AssessmentResponse
	if err := c.mutate(ctx, http.MethodPost, fmt.Sprintf("/api/assessments/%s/submit", jobID), sub, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *HTTPClient) AssessmentResponses(ctx context.Context, jobID uuid.UUID) ([]models.AssessmentResponse, error) {
	var list []models.AssessmentResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/assessments/%s/responses", jobID), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ─── activity ────────────────────────────────────────────────────────────────

func (c *HTTPClient) Activity(ctx context.Context, limit int) ([]models.Activity, error) {
	path := "/api/activity"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var list []models.Activity
	if err := c.do(ctx, http.MethodGet, path, &list); err != nil {
		return nil, err
	}
	return list, nil
}
