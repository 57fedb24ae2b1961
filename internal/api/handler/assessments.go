package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/internal/api/response"
	"github.com/kiranshivaraju/hiretrack/internal/service"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

type AssessmentService interface {
	List(ctx context.Context) ([]*models.Assessment, error)
	GetByJob(ctx context.Context, jobID uuid.UUID) (*models.Assessment, error)
	Upsert(ctx context.Context, jobID uuid.UUID, draft service.AssessmentDraft) (*models.Assessment, bool, error)
	Submit(ctx context.Context, jobID uuid.UUID, sub service.Submission) (*models.AssessmentResponse, error)
	Responses(ctx context.Context, jobID uuid.UUID) ([]*models.AssessmentResponse, error)
}

// NewListAssessmentsHandler serves GET /api/assessments.
func NewListAssessmentsHandler(svc AssessmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if list == nil {
			list = []*models.Assessment{}
		}
		response.JSON(w, list)
	}
}

// NewGetAssessmentHandler serves GET /api/assessments/{jobId}.
func NewGetAssessmentHandler(svc AssessmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := pathID(w, r, "jobId")
		if !ok {
			return
		}
		a, err := svc.GetByJob(r.Context(), jobID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.JSON(w, a)
	}
}

// NewPutAssessmentHandler serves PUT /api/assessments/{jobId}, answering 201
// when the job had no assessment yet.
func NewPutAssessmentHandler(svc AssessmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := pathID(w, r, "jobId")
		if !ok {
			return
		}
		var draft service.AssessmentDraft
		if err := decodeStrict(r, &draft); err != nil {
			invalidBody(w, err)
			return
		}
		a, created, err := svc.Upsert(r.Context(), jobID, draft)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if created {
			response.Created(w, a)
			return
		}
		response.JSON(w, a)
	}
}

// NewSubmitAssessmentHandler serves POST /api/assessments/{jobId}/submit.
func NewSubmitAssessmentHandler(svc AssessmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := pathID(w, r, "jobId")
		if !ok {
			return
		}
		var sub service.Submission
		if err := decodeStrict(r, &sub); err != nil {
			invalidBody(w, err)
			return
		}
		resp, err := svc.Submit(r.Context(), jobID, sub)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.Created(w, resp)
	}
}

// NewAssessmentResponsesHandler serves GET /api/assessments/{jobId}/responses.
func NewAssessmentResponsesHandler(svc AssessmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := pathID(w, r, "jobId")
		if !ok {
			return
		}
		list, err := svc.Responses(r.Context(), jobID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.JSON(w, list)
	}
}
