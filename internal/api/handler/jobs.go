package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/internal/api/response"
	"github.com/kiranshivaraju/hiretrack/internal/service"
	"github.com/kiranshivaraju/hiretrack/internal/store"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

// JobService defines the job operations the handlers depend on.
type JobService interface {
	List(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Create(ctx context.Context, in service.JobInput) (*models.Job, error)
	Update(ctx context.Context, id uuid.UUID, patch service.JobPatch) (*models.Job, error)
	Reorder(ctx context.Context, id uuid.UUID, toOrder int) (*models.Job, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewListJobsHandler serves GET /api/jobs.
func NewListJobsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, pageSize, err := pageParams(r)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		q := r.URL.Query()
		jobs, total, err := svc.List(r.Context(), store.JobFilter{
			Search:   q.Get("search"),
			Status:   q.Get("status"),
			Sort:     q.Get("sort"),
			Page:     page,
			PageSize: pageSize,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if jobs == nil {
			jobs = []*models.Job{}
		}
		response.Paginated(w, jobs, total, page, pageSize)
	}
}

// NewGetJobHandler serves GET /api/jobs/{id}.
func NewGetJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		job, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.JSON(w, job)
	}
}

// NewCreateJobHandler serves POST /api/jobs.
func NewCreateJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.JobInput
		if err := decodeStrict(r, &in); err != nil {
			invalidBody(w, err)
			return
		}
		job, err := svc.Create(r.Context(), in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.Created(w, job)
	}
}

// NewUpdateJobHandler serves PATCH /api/jobs/{id}.
func NewUpdateJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var patch service.JobPatch
		if err := decodeStrict(r, &patch); err != nil {
			invalidBody(w, err)
			return
		}
		job, err := svc.Update(r.Context(), id, patch)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.JSON(w, job)
	}
}

// ReorderRequest is the body of PATCH /api/jobs/{id}/reorder. FromOrder is
// informational; the stored order of the job is authoritative.
type ReorderRequest struct {
	FromOrder *int `json:"fromOrder"`
	ToOrder   *int `json:"toOrder"`
}

// NewReorderJobHandler serves PATCH /api/jobs/{id}/reorder.
func NewReorderJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req ReorderRequest
		if err := decodeStrict(r, &req); err != nil {
			invalidBody(w, err)
			return
		}
		if req.ToOrder == nil {
			badRequest(w, "toOrder is required")
			return
		}
		job, err := svc.Reorder(r.Context(), id, *req.ToOrder)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.JSON(w, job)
	}
}

// NewDeleteJobHandler serves DELETE /api/jobs/{id}.
func NewDeleteJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.NoContent(w)
	}
}
