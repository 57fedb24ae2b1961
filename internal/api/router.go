package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/hiretrack/internal/api/handler"
	mw "github.com/kiranshivaraju/hiretrack/internal/api/middleware"
	"github.com/kiranshivaraju/hiretrack/internal/api/response"
	"github.com/kiranshivaraju/hiretrack/internal/fault"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit
	Fault     fault.Policy

	HealthHandler http.HandlerFunc

	ListJobs   http.HandlerFunc
	GetJob     http.HandlerFunc
	CreateJob  http.HandlerFunc
	UpdateJob  http.HandlerFunc
	ReorderJob http.HandlerFunc
	DeleteJob  http.HandlerFunc

	ListCandidates    http.HandlerFunc
	GetCandidate      http.HandlerFunc
	CreateCandidate   http.HandlerFunc
	UpdateCandidate   http.HandlerFunc
	CandidateTimeline http.HandlerFunc

	ListAssessments     http.HandlerFunc
	GetAssessment       http.HandlerFunc
	PutAssessment       http.HandlerFunc
	SubmitAssessment    http.HandlerFunc
	AssessmentResponses http.HandlerFunc

	ActivityHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	// Health bypasses rate limiting and fault injection
	r.Get("/api/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.Limit)
		r.Use(mw.Fault(deps.Fault))

		r.Get("/api/jobs", orNotImplemented(deps.ListJobs))
		r.Post("/api/jobs", orNotImplemented(deps.CreateJob))
		r.Get("/api/jobs/{id}", orNotImplemented(deps.GetJob))
		r.Patch("/api/jobs/{id}", orNotImplemented(deps.UpdateJob))
		r.Delete("/api/jobs/{id}", orNotImplemented(deps.DeleteJob))
		r.Patch("/api/jobs/{id}/reorder", orNotImplemented(deps.ReorderJob))

		r.Get("/api/candidates", orNotImplemented(deps.ListCandidates))
		r.Post("/api/candidates", orNotImplemented(deps.CreateCandidate))
		r.Get("/api/candidates/{id}", orNotImplemented(deps.GetCandidate))
		r.Patch("/api/candidates/{id}", orNotImplemented(deps.UpdateCandidate))
		r.Get("/api/candidates/{id}/timeline", orNotImplemented(deps.CandidateTimeline))

		r.Get("/api/assessments", orNotImplemented(deps.ListAssessments))
		r.Get("/api/assessments/{jobId}", orNotImplemented(deps.GetAssessment))
		r.Put("/api/assessments/{jobId}", orNotImplemented(deps.PutAssessment))
		r.Post("/api/assessments/{jobId}/submit", orNotImplemented(deps.SubmitAssessment))
		r.Get("/api/assessments/{jobId}/responses", orNotImplemented(deps.AssessmentResponses))

		r.Get("/api/activity", orNotImplemented(deps.ActivityHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}

// Services bundles the domain services behind the routes.
type Services struct {
	Jobs        handler.JobService
	Candidates  handler.CandidateService
	Assessments handler.AssessmentService
	Activity    handler.ActivityFeed
}

// WithServices returns a copy of d with every domain route handler built from svc.
func (d Dependencies) WithServices(svc Services) Dependencies {
	d.ListJobs = handler.NewListJobsHandler(svc.Jobs)
	d.GetJob = handler.NewGetJobHandler(svc.Jobs)
	d.CreateJob = handler.NewCreateJobHandler(svc.Jobs)
	d.UpdateJob = handler.NewUpdateJobHandler(svc.Jobs)
	d.ReorderJob = handler.NewReorderJobHandler(svc.Jobs)
	d.DeleteJob = handler.NewDeleteJobHandler(svc.Jobs)

	d.ListCandidates = handler.NewListCandidatesHandler(svc.Candidates)
	d.GetCandidate = handler.NewGetCandidateHandler(svc.Candidates)
	d.CreateCandidate = handler.NewCreateCandidateHandler(svc.Candidates)
	d.UpdateCandidate = handler.NewUpdateCandidateHandler(svc.Candidates)
	d.CandidateTimeline = handler.NewCandidateTimelineHandler(svc.Candidates)

	d.ListAssessments = handler.NewListAssessmentsHandler(svc.Assessments)
	d.GetAssessment = handler.NewGetAssessmentHandler(svc.Assessments)
	d.PutAssessment = handler.NewPutAssessmentHandler(svc.Assessments)
	d.SubmitAssessment = handler.NewSubmitAssessmentHandler(svc.Assessments)
	d.AssessmentResponses = handler.NewAssessmentResponsesHandler(svc.Assessments)

	d.ActivityHandler = handler.NewActivityHandler(svc.Activity)
	return d
}
