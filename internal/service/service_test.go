package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/internal/store"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type recorded struct {
	Type     string
	EntityID uuid.UUID
}

type mockRecorder struct {
	mu     sync.Mutex
	events []recorded
}

func (r *mockRecorder) Record(_ context.Context, typ, _, _ string, entityID uuid.UUID, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{Type: typ, EntityID: entityID})
}

func (r *mockRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// failingStore wraps a MemoryStore and fails selected calls.
type failingStore struct {
	*store.MemoryStore
	maxOrderErr error
}

func (s *failingStore) MaxJobOrder(ctx context.Context) (int, error) {
	if s.maxOrderErr != nil {
		return 0, s.maxOrderErr
	}
	return s.MemoryStore.MaxJobOrder(ctx)
}

type fixture struct {
	store       *store.MemoryStore
	rec         *mockRecorder
	jobs        *JobService
	candidates  *CandidateService
	assessments *AssessmentService
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: store.NewMemoryStore(),
		rec:   &mockRecorder{},
		now:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	clk := func() time.Time {
		f.now = f.now.Add(time.Minute)
		return f.now
	}
	f.jobs = NewJobService(f.store, f.rec)
	f.jobs.now = clk
	f.candidates = NewCandidateService(f.store, f.rec)
	f.candidates.now = clk
	f.assessments = NewAssessmentService(f.store, f.rec)
	f.assessments.now = clk
	return f
}

func (f *fixture) job(t *testing.T, title string) *models.Job {
	t.Helper()
	j, err := f.jobs.Create(context.Background(), JobInput{Title: title})
	require.NoError(t, err)
	return j
}

func (f *fixture) candidate(t *testing.T, jobID uuid.UUID) *models.Candidate {
	t.Helper()
	c, err := f.candidates.Create(context.Background(), CandidateInput{
		Name: "Ada Lovelace", Email: "ada@example.com", JobID: jobID,
	})
	require.NoError(t, err)
	return c
}

func strPtr(s string) *string { return &s }

// --- Jobs ---

func TestJobCreate_Defaults(t *testing.T) {
	f := newFixture(t)

	j, err := f.jobs.Create(context.Background(), JobInput{
		Title: "  Senior Go Engineer ", Tags: []string{"go", " ", "remote"},
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, j.ID)
	assert.Equal(t, "Senior Go Engineer", j.Title)
	assert.Equal(t, "senior-go-engineer", j.Slug)
	assert.Equal(t, models.JobStatusActive, j.Status)
	assert.Equal(t, []string{"go", "remote"}, j.Tags)
	assert.Equal(t, 1, j.Order)
	assert.Equal(t, j.CreatedAt, j.UpdatedAt)
	assert.Equal(t, []string{models.ActivityJobCreated}, f.rec.types())
}

func TestJobCreate_OrderIsMaxPlusOne(t *testing.T) {
	f := newFixture(t)
	f.job(t, "A")
	f.job(t, "B")

	j := f.job(t, "C")
	assert.Equal(t, 3, j.Order)
}

func TestJobCreate_DerivedSlugGetsSuffix(t *testing.T) {
	f := newFixture(t)
	f.job(t, "Data Engineer")

	j := f.job(t, "Data Engineer")
	assert.Equal(t, "data-engineer-2", j.Slug)
}

func TestJobCreate_ExplicitSlugConflict(t *testing.T) {
	f := newFixture(t)
	f.job(t, "Data Engineer")

	_, err := f.jobs.Create(context.Background(), JobInput{Title: "Other", Slug: "data-engineer"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestJobCreate_Invalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.jobs.Create(ctx, JobInput{Title: "  "})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = f.jobs.Create(ctx, JobInput{Title: "X", Status: "draft"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = f.jobs.Create(ctx, JobInput{Title: "!!!"})
	assert.ErrorIs(t, err, ErrInvalid)

	assert.Empty(t, f.rec.types())
}

func TestJobCreate_StoreError(t *testing.T) {
	st := &failingStore{MemoryStore: store.NewMemoryStore(), maxOrderErr: errors.New("disk full")}
	svc := NewJobService(st, &mockRecorder{})

	_, err := svc.Create(context.Background(), JobInput{Title: "X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestJobUpdate_PatchOnlyNamedFields(t *testing.T) {
	f := newFixture(t)
	j, err := f.jobs.Create(context.Background(), JobInput{Title: "Backend", Location: "Berlin", Salary: "€70k"})
	require.NoError(t, err)

	updated, err := f.jobs.Update(context.Background(), j.ID, JobPatch{Location: strPtr("Remote")})
	require.NoError(t, err)

	assert.Equal(t, "Remote", updated.Location)
	assert.Equal(t, "Backend", updated.Title)
	assert.Equal(t, "€70k", updated.Salary)
	assert.Equal(t, j.Order, updated.Order)
	assert.True(t, updated.UpdatedAt.After(j.UpdatedAt))
	assert.Equal(t, []string{models.ActivityJobCreated, models.ActivityJobUpdated}, f.rec.types())
}

func TestJobUpdate_ArchiveRecordsArchived(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "Backend")

	_, err := f.jobs.Update(context.Background(), j.ID, JobPatch{Status: strPtr(models.JobStatusArchived)})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityJobArchived, f.rec.types()[1])
}

func TestJobUpdate_Invalid(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "Backend")
	ctx := context.Background()

	_, err := f.jobs.Update(ctx, j.ID, JobPatch{Status: strPtr("paused")})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = f.jobs.Update(ctx, j.ID, JobPatch{Title: strPtr("")})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestJobUpdate_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.jobs.Update(context.Background(), uuid.New(), JobPatch{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJobReorder_ShiftsAndRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var jobs []*models.Job
	for _, title := range []string{"A", "B", "C", "D", "E"} {
		jobs = append(jobs, f.job(t, title))
	}

	moved, err := f.jobs.Reorder(ctx, jobs[4].ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Order)

	for i, want := range []int{1, 3, 4, 5} {
		got, err := f.jobs.Get(ctx, jobs[i].ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Order, jobs[i].Title)
	}
	assert.Equal(t, models.ActivityJobReordered, f.rec.types()[5])
}

func TestJobReorder_SamePositionRecordsNothing(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "A")

	_, err := f.jobs.Reorder(context.Background(), j.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{models.ActivityJobCreated}, f.rec.types())
}

func TestJobReorder_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.jobs.Reorder(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJobDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.job(t, "A")
	b := f.job(t, "B")

	require.NoError(t, f.jobs.Delete(ctx, a.ID))

	_, err := f.jobs.Get(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	got, err := f.jobs.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Order)
	assert.Contains(t, f.rec.types(), models.ActivityJobDeleted)

	assert.ErrorIs(t, f.jobs.Delete(ctx, a.ID), store.ErrNotFound)
}

func TestJobList_RejectsUnknownFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.jobs.List(ctx, store.JobFilter{Status: "draft"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, _, err = f.jobs.List(ctx, store.JobFilter{Sort: "salary"})
	assert.ErrorIs(t, err, ErrInvalid)
}

// --- Candidates ---

func TestCandidateCreate_Defaults(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "A")

	c := f.candidate(t, j.ID)

	assert.Equal(t, models.StageApplied, c.Stage)
	require.Len(t, c.Timeline, 1)
	assert.Equal(t, models.StageApplied, c.Timeline[0].Stage)
	assert.Equal(t, c.AppliedAt, c.Timeline[0].Timestamp)
	assert.Equal(t, models.ActivityCandidateCreated, f.rec.types()[1])
}

func TestCandidateCreate_Invalid(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "A")
	ctx := context.Background()

	tests := []struct {
		name string
		in   CandidateInput
	}{
		{"no name", CandidateInput{Email: "a@example.com", JobID: j.ID}},
		{"bad email", CandidateInput{Name: "A", Email: "not-an-email", JobID: j.ID}},
		{"bad stage", CandidateInput{Name: "A", Email: "a@example.com", JobID: j.ID, Stage: "limbo"}},
		{"no job", CandidateInput{Name: "A", Email: "a@example.com"}},
		{"unknown job", CandidateInput{Name: "A", Email: "a@example.com", JobID: uuid.New()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.candidates.Create(ctx, tt.in)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestCandidateUpdate_StageKeepsOtherFields(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "A")
	c := f.candidate(t, j.ID)

	updated, err := f.candidates.Update(context.Background(), c.ID, CandidatePatch{Stage: strPtr(models.StageHired)})
	require.NoError(t, err)

	assert.Equal(t, models.StageHired, updated.Stage)
	assert.Equal(t, c.Email, updated.Email)
	assert.Equal(t, c.JobID, updated.JobID)
	assert.Equal(t, c.Name, updated.Name)
}

func TestCandidateUpdate_StageChangeAppendsTimeline(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "A")
	c := f.candidate(t, j.ID)
	ctx := context.Background()

	_, err := f.candidates.Update(ctx, c.ID, CandidatePatch{Stage: strPtr(models.StageScreen), TimelineNote: strPtr("Phone screen booked")})
	require.NoError(t, err)
	_, err = f.candidates.Update(ctx, c.ID, CandidatePatch{Stage: strPtr(models.StageTech)})
	require.NoError(t, err)

	tl, err := f.candidates.Timeline(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, tl, 3)
	assert.Equal(t, models.StageScreen, tl[1].Stage)
	assert.Equal(t, "Phone screen booked", tl[1].Note)
	assert.Equal(t, models.StageTech, tl[2].Stage)
	assert.True(t, tl[2].Timestamp.After(tl[1].Timestamp))

	types := f.rec.types()
	assert.Equal(t, models.ActivityCandidateStageChanged, types[len(types)-1])
}

func TestCandidateUpdate_SameStageNoTimelineEntry(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "A")
	c := f.candidate(t, j.ID)

	updated, err := f.candidates.Update(context.Background(), c.ID, CandidatePatch{
		Stage: strPtr(models.StageApplied),
		Notes: &[]string{"great fit"},
	})
	require.NoError(t, err)

	assert.Len(t, updated.Timeline, 1)
	assert.Equal(t, []string{"great fit"}, updated.Notes)
	types := f.rec.types()
	assert.Equal(t, models.ActivityCandidateUpdated, types[len(types)-1])
}

func TestCandidateUpdate_Invalid(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "A")
	c := f.candidate(t, j.ID)
	ctx := context.Background()

	_, err := f.candidates.Update(ctx, c.ID, CandidatePatch{Stage: strPtr("limbo")})
	assert.ErrorIs(t, err, ErrInvalid)

	missing := uuid.New()
	_, err = f.candidates.Update(ctx, c.ID, CandidatePatch{JobID: &missing})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = f.candidates.Update(ctx, uuid.New(), CandidatePatch{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCandidateList_RejectsUnknownStage(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.candidates.List(context.Background(), store.CandidateFilter{Stage: "limbo"})
	assert.ErrorIs(t, err, ErrInvalid)
}

// --- Assessments ---

func draft() AssessmentDraft {
	return AssessmentDraft{
		Title: "Screening",
		Sections: []models.Section{{
			ID: "s1", Title: "Basics",
			Questions: []models.Question{
				{ID: "q1", Type: models.QuestionSingleChoice, Label: "Remote?", Options: []string{"Yes", "No"},
					Validation: models.Validation{Required: true}},
				{ID: "q2", Type: models.QuestionShortText, Label: "Why not?",
					Validation: models.Validation{Required: true},
					Condition:  &models.Condition{QuestionID: "q1", Equals: "No"}},
				{ID: "q3", Type: models.QuestionNumeric, Label: "Years"},
			},
		}},
	}
}

func TestAssessmentUpsert_CreateThenReplace(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "A")
	ctx := context.Background()

	first, created, err := f.assessments.Upsert(ctx, j.ID, draft())
	require.NoError(t, err)
	assert.True(t, created)

	d := draft()
	d.Title = "Screening v2"
	second, created, err := f.assessments.Upsert(ctx, j.ID, d)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	got, err := f.assessments.GetByJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "Screening v2", got.Title)

	all, err := f.assessments.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAssessmentUpsert_UnknownJob(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.assessments.Upsert(context.Background(), uuid.New(), draft())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAssessmentUpsert_InvalidDraft(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "A")
	d := draft()
	d.Sections[0].Questions[1].ID = "q1"

	_, _, err := f.assessments.Upsert(context.Background(), j.ID, d)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAssessmentSubmit(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "A")
	c := f.candidate(t, j.ID)
	ctx := context.Background()
	_, _, err := f.assessments.Upsert(ctx, j.ID, draft())
	require.NoError(t, err)

	resp, err := f.assessments.Submit(ctx, j.ID, Submission{
		CandidateID: c.ID,
		Answers: []models.Answer{
			{QuestionID: "q1", Value: "Yes"},
			{QuestionID: "q2", Value: "ignored because hidden"},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.Answers, 1)
	assert.Equal(t, "q1", resp.Answers[0].QuestionID)
	require.NotNil(t, resp.Score)
	assert.InDelta(t, 0.5, *resp.Score, 1e-9)

	list, err := f.assessments.Responses(ctx, j.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, resp.ID, list[0].ID)

	types := f.rec.types()
	assert.Equal(t, models.ActivityAssessmentSubmitted, types[len(types)-1])
}

func TestAssessmentSubmit_Invalid(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "A")
	c := f.candidate(t, j.ID)
	ctx := context.Background()
	_, _, err := f.assessments.Upsert(ctx, j.ID, draft())
	require.NoError(t, err)

	_, err = f.assessments.Submit(ctx, j.ID, Submission{CandidateID: c.ID, Answers: []models.Answer{{QuestionID: "q1", Value: "No"}}})
	assert.ErrorIs(t, err, ErrInvalid, "visible required q2 is missing")

	_, err = f.assessments.Submit(ctx, j.ID, Submission{Answers: []models.Answer{{QuestionID: "q1", Value: "Yes"}}})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = f.assessments.Submit(ctx, j.ID, Submission{CandidateID: uuid.New()})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAssessmentSubmit_NoAssessment(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "A")

	_, err := f.assessments.Submit(context.Background(), j.ID, Submission{CandidateID: uuid.New()})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAssessmentResponses_Empty(t *testing.T) {
	f := newFixture(t)
	j := f.job(t, "A")
	ctx := context.Background()
	_, _, err := f.assessments.Upsert(ctx, j.ID, draft())
	require.NoError(t, err)

	list, err := f.assessments.Responses(ctx, j.ID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
