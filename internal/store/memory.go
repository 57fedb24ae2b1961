package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

// MemoryStore implements Store with in-process maps. Rows are copied on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	jobs        map[uuid.UUID]*models.Job
	candidates  map[uuid.UUID]*models.Candidate
	assessments map[uuid.UUID]*models.Assessment
	responses   map[uuid.UUID]*models.AssessmentResponse
	seedVersion int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:        make(map[uuid.UUID]*models.Job),
		candidates:  make(map[uuid.UUID]*models.Candidate),
		assessments: make(map[uuid.UUID]*models.Assessment),
		responses:   make(map[uuid.UUID]*models.AssessmentResponse),
	}
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// --- Jobs ---

func (s *MemoryStore) ListJobs(_ context.Context, filter JobFilter) ([]*models.Job, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []*models.Job
	for _, j := range s.jobs {
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		if search != "" && !jobMatches(j, search) {
			continue
		}
		matched = append(matched, j)
	}

	switch normalizeSort(filter.Sort) {
	case SortTitle:
		sort.Slice(matched, func(a, b int) bool {
			ta, tb := strings.ToLower(matched[a].Title), strings.ToLower(matched[b].Title)
			if ta != tb {
				return ta < tb
			}
			return matched[a].Order < matched[b].Order
		})
	case SortCreated:
		sort.Slice(matched, func(a, b int) bool {
			if !matched[a].CreatedAt.Equal(matched[b].CreatedAt) {
				return matched[a].CreatedAt.After(matched[b].CreatedAt)
			}
			return matched[a].Order < matched[b].Order
		})
	default:
		sort.Slice(matched, func(a, b int) bool {
			if matched[a].Order != matched[b].Order {
				return matched[a].Order < matched[b].Order
			}
			return matched[a].ID.String() < matched[b].ID.String()
		})
	}

	total := len(matched)
	_, pageSize, offset := Paginate(filter.Page, filter.PageSize)
	out := []*models.Job{}
	for i := offset; i < total && i < offset+pageSize; i++ {
		out = append(out, cloneJob(matched[i]))
	}
	return out, total, nil
}

func jobMatches(j *models.Job, search string) bool {
	if strings.Contains(strings.ToLower(j.Title), search) ||
		strings.Contains(strings.ToLower(j.Description), search) {
		return true
	}
	for _, t := range j.Tags {
		if strings.Contains(strings.ToLower(t), search) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) GetJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneJob(j), nil
}

func (s *MemoryStore) CreateJob(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return ErrDuplicateKey
	}
	for _, j := range s.jobs {
		if j.Slug == job.Slug {
			return ErrDuplicateKey
		}
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *MemoryStore) UpdateJob(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.jobs[job.ID]
	if !ok {
		return ErrNotFound
	}
	for _, j := range s.jobs {
		if j.ID != job.ID && j.Slug == job.Slug {
			return ErrDuplicateKey
		}
	}
	updated := cloneJob(job)
	updated.Order = existing.Order
	s.jobs[job.ID] = updated
	return nil
}

func (s *MemoryStore) ReorderJob(_ context.Context, id uuid.UUID, toOrder int) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}

	to := clampOrder(toOrder, len(s.jobs))
	now := time.Now().UTC()
	if lo, hi, delta, ok := shiftRange(target.Order, to); ok {
		for _, j := range s.jobs {
			if j.ID != id && j.Order >= lo && j.Order <= hi {
				j.Order += delta
				j.UpdatedAt = now
			}
		}
		target.Order = to
		target.UpdatedAt = now
	}
	return cloneJob(target), nil
}

func (s *MemoryStore) DeleteJob(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	for _, j := range s.jobs {
		if j.Order > target.Order {
			j.Order--
		}
	}
	return nil
}

func (s *MemoryStore) MaxJobOrder(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	maxOrder := 0
	for _, j := range s.jobs {
		if j.Order > maxOrder {
			maxOrder = j.Order
		}
	}
	return maxOrder, nil
}

func (s *MemoryStore) CountJobs(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs), nil
}

// --- Candidates ---

func (s *MemoryStore) ListCandidates(_ context.Context, filter CandidateFilter) ([]*models.Candidate, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []*models.Candidate
	for _, c := range s.candidates {
		if filter.Stage != "" && c.Stage != filter.Stage {
			continue
		}
		if filter.JobID != uuid.Nil && c.JobID != filter.JobID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Email), search) {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(a, b int) bool {
		if !matched[a].AppliedAt.Equal(matched[b].AppliedAt) {
			return matched[a].AppliedAt.After(matched[b].AppliedAt)
		}
		return matched[a].ID.String() < matched[b].ID.String()
	})

	total := len(matched)
	_, pageSize, offset := Paginate(filter.Page, filter.PageSize)
	out := []*models.Candidate{}
	for i := offset; i < total && i < offset+pageSize; i++ {
		out = append(out, cloneCandidate(matched[i]))
	}
	return out, total, nil
}

func (s *MemoryStore) GetCandidate(_ context.Context, id uuid.UUID) (*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCandidate(c), nil
}

func (s *MemoryStore) CreateCandidate(_ context.Context, c *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[c.ID]; ok {
		return ErrDuplicateKey
	}
	s.candidates[c.ID] = cloneCandidate(c)
	return nil
}

func (s *MemoryStore) UpdateCandidate(_ context.Context, c *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[c.ID]; !ok {
		return ErrNotFound
	}
	s.candidates[c.ID] = cloneCandidate(c)
	return nil
}

func (s *MemoryStore) CountCandidates(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candidates), nil
}

// --- Assessments ---

func (s *MemoryStore) ListAssessments(_ context.Context) ([]*models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Assessment, 0, len(s.assessments))
	for _, a := range s.assessments {
		c, err := cloneAssessment(a)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) GetAssessmentByJob(_ context.Context, jobID uuid.UUID) (*models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Assessment
	for _, a := range s.assessments {
		if a.JobID != jobID {
			continue
		}
		// the newest wins when several share a job
		if found == nil || a.UpdatedAt.After(found.UpdatedAt) {
			found = a
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return cloneAssessment(found)
}

func (s *MemoryStore) UpsertAssessment(_ context.Context, a *models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := cloneAssessment(a)
	if err != nil {
		return err
	}
	s.assessments[a.ID] = c
	return nil
}

// --- Responses ---

func (s *MemoryStore) CreateResponse(_ context.Context, r *models.AssessmentResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.responses[r.ID]; ok {
		return ErrDuplicateKey
	}
	c, err := cloneResponse(r)
	if err != nil {
		return err
	}
	s.responses[r.ID] = c
	return nil
}

func (s *MemoryStore) ListResponses(_ context.Context, assessmentID uuid.UUID) ([]*models.AssessmentResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.AssessmentResponse
	for _, r := range s.responses {
		if r.AssessmentID != assessmentID {
			continue
		}
		c, err := cloneResponse(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

// --- Seeding ---

func (s *MemoryStore) BulkInsert(_ context.Context, ds Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range ds.Jobs {
		s.jobs[j.ID] = cloneJob(j)
	}
	for _, c := range ds.Candidates {
		s.candidates[c.ID] = cloneCandidate(c)
	}
	for _, a := range ds.Assessments {
		c, err := cloneAssessment(a)
		if err != nil {
			return err
		}
		s.assessments[a.ID] = c
	}
	return nil
}

func (s *MemoryStore) SeedVersion(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seedVersion, nil
}

func (s *MemoryStore) SetSeedVersion(_ context.Context, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seedVersion = version
	return nil
}

// --- copies ---

func cloneJob(j *models.Job) *models.Job {
	c := *j
	c.Tags = append([]string(nil), j.Tags...)
	c.Requirements = append([]string(nil), j.Requirements...)
	return &c
}

func cloneCandidate(c *models.Candidate) *models.Candidate {
	out := *c
	out.Notes = append([]string(nil), c.Notes...)
	out.Timeline = append([]models.TimelineEntry(nil), c.Timeline...)
	return &out
}

// Assessments and responses hold nested any values, so they round-trip through JSON.
// deepCopy copies src into dst through JSON, the same form the SQL stores keep
// sections and answers in.
func deepCopy(src, dst any) error {
	b, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("copy %T: %w", src, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("copy %T: %w", src, err)
	}
	return nil
}

func cloneAssessment(a *models.Assessment) (*models.Assessment, error) {
	var out models.Assessment
	if err := deepCopy(a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func cloneResponse(r *models.AssessmentResponse) (*models.AssessmentResponse, error) {
	var out models.AssessmentResponse
	if err := deepCopy(r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

var _ Store = (*MemoryStore)(nil)
