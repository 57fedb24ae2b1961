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

type CandidateService interface {
	List(ctx context.Context, filter store.CandidateFilter) ([]*models.Candidate, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	Create(ctx context.Context, in service.CandidateInput) (*models.Candidate, error)
	Update(ctx context.Context, id uuid.UUID, patch service.CandidatePatch) (*models.Candidate, error)
	Timeline(ctx context.Context, id uuid.UUID) ([]models.TimelineEntry, error)
}

// NewListCandidatesHandler serves GET /api/candidates.
func NewListCandidatesHandler(svc CandidateService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, pageSize, err := pageParams(r)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		q := r.URL.Query()
		filter := store.CandidateFilter{
			Search:   q.Get("search"),
			Stage:    q.Get("stage"),
			Page:     page,
			PageSize: pageSize,
		}
		if raw := q.Get("jobId"); raw != "" {
			jobID, err := uuid.Parse(raw)
			if err != nil {
				badRequest(w, "jobId must be a valid UUID")
				return
			}
			filter.JobID = jobID
		}

		candidates, total, err := svc.List(r.Context(), filter)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if candidates == nil {
			candidates = []*models.Candidate{}
		}
		response.Paginated(w, candidates, total, page, pageSize)
	}
}

func NewGetCandidateHandler(svc CandidateService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		c, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.JSON(w, c)
	}
}

func NewCreateCandidateHandler(svc CandidateService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.CandidateInput
		if err := decodeStrict(r, &in); err != nil {
			invalidBody(w, err)
			return
		}
		c, err := svc.Create(r.Context(), in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.Created(w, c)
	}
}

func NewUpdateCandidateHandler(svc CandidateService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var patch service.CandidatePatch
		if err := decodeStrict(r, &patch); err != nil {
			invalidBody(w, err)
			return
		}
		c, err := svc.Update(r.Context(), id, patch)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.JSON(w, c)
	}
}

// NewCandidateTimelineHandler serves GET /api/candidates/{id}/timeline.
func NewCandidateTimelineHandler(svc CandidateService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		tl, err := svc.Timeline(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.JSON(w, tl)
	}
}
