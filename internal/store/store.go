package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

const (
	SortOrder   = "order"
	SortTitle   = "title"
	SortCreated = "created"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Store is the data access interface. All local store operations go through here.
// Implementations must be safe for concurrent use.
type Store interface {
	Ping(ctx context.Context) error

	ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error)
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	CreateJob(ctx context.Context, job *models.Job) error
	UpdateJob(ctx context.Context, job *models.Job) error
	// ReorderJob moves the job to toOrder (clamped to 1..N) and shifts the jobs in
	// between so the orders stay dense. It returns the updated job.
	ReorderJob(ctx context.Context, id uuid.UUID, toOrder int) (*models.Job, error)
	// DeleteJob removes the job and closes the gap it leaves in the ordering.
	DeleteJob(ctx context.Context, id uuid.UUID) error
	MaxJobOrder(ctx context.Context) (int, error)
	CountJobs(ctx context.Context) (int, error)

	ListCandidates(ctx context.Context, filter CandidateFilter) ([]*models.Candidate, int, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	CreateCandidate(ctx context.Context, c *models.Candidate) error
	UpdateCandidate(ctx context.Context, c *models.Candidate) error
	CountCandidates(ctx context.Context) (int, error)

	ListAssessments(ctx context.Context) ([]*models.Assessment, error)
	GetAssessmentByJob(ctx context.Context, jobID uuid.UUID) (*models.Assessment, error)
	UpsertAssessment(ctx context.Context, a *models.Assessment) error

	CreateResponse(ctx context.Context, r *models.AssessmentResponse) error
	ListResponses(ctx context.Context, assessmentID uuid.UUID) ([]*models.AssessmentResponse, error)

	// BulkInsert loads a seed dataset in one pass. Jobs keep their given orders.
	BulkInsert(ctx context.Context, ds Dataset) error
	SeedVersion(ctx context.Context) (int, error)
	SetSeedVersion(ctx context.Context, version int) error
}

// Dataset is a batch of rows for BulkInsert.
type Dataset struct {
	Jobs        []*models.Job
	Candidates  []*models.Candidate
	Assessments []*models.Assessment
}

type JobFilter struct {
	Search   string
	Status   string
	Sort     string
	Page     int
	PageSize int
}

type CandidateFilter struct {
	Search   string
	Stage    string
	JobID    uuid.UUID
	Page     int
	PageSize int
}

// Paginate clamps page and pageSize to their valid ranges and returns them with the
// row offset of the first item on the page.
func Paginate(page, pageSize int) (int, int, int) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize, (page - 1) * pageSize
}

// TotalPages is ceil(total/pageSize).
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func normalizeSort(s string) string {
	switch s {
	case SortTitle, SortCreated:
		return s
	default:
		return SortOrder
	}
}
