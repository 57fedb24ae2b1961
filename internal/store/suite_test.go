package store_test

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/internal/store"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite exercises the behaviour every Store implementation must share.
// newStore must return an empty store for each call.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("ListJobs_PaginatesByOrder", func(t *testing.T) { testListJobsPaginates(t, newStore(t)) })
	t.Run("ListJobs_OutOfRangePage", func(t *testing.T) { testListJobsOutOfRange(t, newStore(t)) })
	t.Run("ListJobs_FilterAndSort", func(t *testing.T) { testListJobsFilterSort(t, newStore(t)) })
	t.Run("ListJobs_TagSearch", func(t *testing.T) { testListJobsTagSearch(t, newStore(t)) })
	t.Run("Job_CreateGetUpdate", func(t *testing.T) { testJobRoundTrip(t, newStore(t)) })
	t.Run("Job_DuplicateSlug", func(t *testing.T) { testJobDuplicateSlug(t, newStore(t)) })
	t.Run("Job_NotFound", func(t *testing.T) { testJobNotFound(t, newStore(t)) })
	t.Run("ReorderJob_MoveUp", func(t *testing.T) { testReorderMoveUp(t, newStore(t)) })
	t.Run("ReorderJob_MoveDown", func(t *testing.T) { testReorderMoveDown(t, newStore(t)) })
	t.Run("ReorderJob_StaysDense", func(t *testing.T) { testReorderDense(t, newStore(t)) })
	t.Run("DeleteJob_CompactsOrders", func(t *testing.T) { testDeleteCompacts(t, newStore(t)) })
	t.Run("Candidates_FilterAndPaginate", func(t *testing.T) { testCandidates(t, newStore(t)) })
	t.Run("Candidate_Update", func(t *testing.T) { testCandidateUpdate(t, newStore(t)) })
	t.Run("Assessments_Upsert", func(t *testing.T) { testAssessments(t, newStore(t)) })
	t.Run("Responses_AppendOnly", func(t *testing.T) { testResponses(t, newStore(t)) })
	t.Run("SeedVersion", func(t *testing.T) { testSeedVersion(t, newStore(t)) })
}

func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func newJob(order int) *models.Job {
	ts := now().Add(time.Duration(order) * time.Minute)
	return &models.Job{
		ID:          uuid.New(),
		Title:       fmt.Sprintf("Job %02d", order),
		Slug:        fmt.Sprintf("job-%02d-%s", order, uuid.NewString()[:6]),
		Status:      models.JobStatusActive,
		Tags:        []string{"remote"},
		Order:       order,
		Description: "A role",
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// seedJobs inserts n jobs with orders 1..n and returns them indexed by order.
func seedJobs(t *testing.T, s store.Store, n int) map[int]*models.Job {
	t.Helper()
	byOrder := make(map[int]*models.Job, n)
	var jobs []*models.Job
	for i := 1; i <= n; i++ {
		j := newJob(i)
		byOrder[i] = j
		jobs = append(jobs, j)
	}
	require.NoError(t, s.BulkInsert(context.Background(), store.Dataset{Jobs: jobs}))
	return byOrder
}

func allOrders(t *testing.T, s store.Store) map[uuid.UUID]int {
	t.Helper()
	jobs, _, err := s.ListJobs(context.Background(), store.JobFilter{PageSize: 100})
	require.NoError(t, err)
	out := make(map[uuid.UUID]int, len(jobs))
	for _, j := range jobs {
		out[j.ID] = j.Order
	}
	return out
}

func assertDense(t *testing.T, s store.Store) {
	t.Helper()
	orders := allOrders(t, s)
	var vals []int
	for _, o := range orders {
		vals = append(vals, o)
	}
	sort.Ints(vals)
	for i, v := range vals {
		assert.Equal(t, i+1, v, "orders must be exactly 1..N")
	}
}

func testListJobsPaginates(t *testing.T, s store.Store) {
	seedJobs(t, s, 25)

	jobs, total, err := s.ListJobs(context.Background(), store.JobFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	require.Len(t, jobs, 10)
	for i, j := range jobs {
		assert.Equal(t, 11+i, j.Order)
	}

	last, _, err := s.ListJobs(context.Background(), store.JobFilter{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, last, 5)
}

func testListJobsOutOfRange(t *testing.T, s store.Store) {
	seedJobs(t, s, 3)

	jobs, total, err := s.ListJobs(context.Background(), store.JobFilter{Page: 9, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)
}

func testListJobsFilterSort(t *testing.T, s store.Store) {
	ctx := context.Background()
	ts := now()
	jobs := []*models.Job{
		{ID: uuid.New(), Title: "Backend Engineer", Slug: "backend", Status: models.JobStatusActive,
			Tags: []string{"Go", "postgres"}, Order: 1, CreatedAt: ts.Add(-3 * time.Hour), UpdatedAt: ts},
		{ID: uuid.New(), Title: "android developer", Slug: "android", Status: models.JobStatusArchived,
			Tags: []string{"kotlin"}, Order: 2, Description: "Mobile GO-TO person",
			CreatedAt: ts.Add(-1 * time.Hour), UpdatedAt: ts},
		{ID: uuid.New(), Title: "Data Analyst", Slug: "data", Status: models.JobStatusActive,
			Tags: []string{"sql"}, Order: 3, CreatedAt: ts.Add(-2 * time.Hour), UpdatedAt: ts},
	}
	require.NoError(t, s.BulkInsert(ctx, store.Dataset{Jobs: jobs}))

	got, total, err := s.ListJobs(ctx, store.JobFilter{Search: "go"})
	require.NoError(t, err)
	assert.Equal(t, 2, total, "matches tag and description case-insensitively")
	assert.Equal(t, "backend", got[0].Slug)

	got, total, err = s.ListJobs(ctx, store.JobFilter{Status: models.JobStatusActive})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	got, _, err = s.ListJobs(ctx, store.JobFilter{Sort: store.SortTitle})
	require.NoError(t, err)
	assert.Equal(t, []string{"android", "backend", "data"}, slugs(got))

	got, _, err = s.ListJobs(ctx, store.JobFilter{Sort: store.SortCreated})
	require.NoError(t, err)
	assert.Equal(t, []string{"android", "data", "backend"}, slugs(got))

	got, total, err = s.ListJobs(ctx, store.JobFilter{Search: "100%"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, got)
}

func testListJobsTagSearch(t *testing.T, s store.Store) {
	ctx := context.Background()
	ts := now()
	jobs := []*models.Job{
		{ID: uuid.New(), Title: "Research Lead", Slug: "research", Status: models.JobStatusActive,
			Tags: []string{"R&D"}, Order: 1, CreatedAt: ts, UpdatedAt: ts},
		{ID: uuid.New(), Title: "Systems Engineer", Slug: "systems", Status: models.JobStatusActive,
			Tags: []string{"go", "rust"}, Order: 2, CreatedAt: ts, UpdatedAt: ts},
		{ID: uuid.New(), Title: "Copywriter", Slug: "copy", Status: models.JobStatusActive,
			Tags: []string{`say "hi"`}, Order: 3, CreatedAt: ts, UpdatedAt: ts},
	}
	require.NoError(t, s.BulkInsert(ctx, store.Dataset{Jobs: jobs}))

	tests := []struct {
		search string
		want   []string
	}{
		{"r&d", []string{"research"}},
		{`"`, []string{"copy"}},
		{`"hi"`, []string{"copy"}},
		{"RUST", []string{"systems"}},
		{"go rust", nil},
		{",", nil},
	}
	for _, tt := range tests {
		got, total, err := s.ListJobs(ctx, store.JobFilter{Search: tt.search})
		require.NoError(t, err)
		assert.Equal(t, len(tt.want), total, "search %q", tt.search)
		assert.Equal(t, tt.want, slugs(got), "search %q", tt.search)
	}
}

func slugs(jobs []*models.Job) []string {
	var out []string
	for _, j := range jobs {
		out = append(out, j.Slug)
	}
	return out
}

func testJobRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	j := newJob(1)
	j.Requirements = []string{"3 years Go"}
	j.Location = "Lisbon"
	j.Salary = "€70k"
	require.NoError(t, s.CreateJob(ctx, j))

	got, err := s.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.Title, got.Title)
	assert.Equal(t, j.Tags, got.Tags)
	assert.Equal(t, j.Requirements, got.Requirements)
	assert.Equal(t, j.Location, got.Location)
	assert.True(t, j.CreatedAt.Equal(got.CreatedAt))

	got.Title = "Renamed"
	got.Status = models.JobStatusArchived
	got.UpdatedAt = now().Add(time.Hour)
	require.NoError(t, s.UpdateJob(ctx, got))

	again, err := s.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.Title)
	assert.Equal(t, models.JobStatusArchived, again.Status)
	assert.Equal(t, 1, again.Order)

	maxOrder, err := s.MaxJobOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, maxOrder)

	n, err := s.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testJobDuplicateSlug(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newJob(1)
	require.NoError(t, s.CreateJob(ctx, a))

	b := newJob(2)
	b.Slug = a.Slug
	assert.ErrorIs(t, s.CreateJob(ctx, b), store.ErrDuplicateKey)
}

func testJobNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.GetJob(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.UpdateJob(ctx, newJob(1)), store.ErrNotFound)

	_, err = s.ReorderJob(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.DeleteJob(ctx, uuid.New()), store.ErrNotFound)
}

func testReorderMoveUp(t *testing.T, s store.Store) {
	jobs := seedJobs(t, s, 6)

	moved, err := s.ReorderJob(context.Background(), jobs[5].ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Order)

	orders := allOrders(t, s)
	assert.Equal(t, 1, orders[jobs[1].ID])
	assert.Equal(t, 3, orders[jobs[2].ID])
	assert.Equal(t, 4, orders[jobs[3].ID])
	assert.Equal(t, 5, orders[jobs[4].ID])
	assert.Equal(t, 6, orders[jobs[6].ID])
	assertDense(t, s)
}

func testReorderMoveDown(t *testing.T, s store.Store) {
	jobs := seedJobs(t, s, 5)

	_, err := s.ReorderJob(context.Background(), jobs[1].ID, 4)
	require.NoError(t, err)

	orders := allOrders(t, s)
	assert.Equal(t, 4, orders[jobs[1].ID])
	assert.Equal(t, 1, orders[jobs[2].ID])
	assert.Equal(t, 2, orders[jobs[3].ID])
	assert.Equal(t, 3, orders[jobs[4].ID])
	assert.Equal(t, 5, orders[jobs[5].ID])
}

func testReorderDense(t *testing.T, s store.Store) {
	jobs := seedJobs(t, s, 8)
	ctx := context.Background()

	moves := []struct {
		from, to int
	}{{8, 1}, {1, 8}, {3, 3}, {2, 7}, {4, 0}, {5, 99}}
	for _, m := range moves {
		_, err := s.ReorderJob(ctx, jobs[m.from].ID, m.to)
		require.NoError(t, err)
		assertDense(t, s)
	}

	orders := allOrders(t, s)
	assert.Equal(t, 8, orders[jobs[5].ID], "order beyond N clamps to N")
}

func testDeleteCompacts(t *testing.T, s store.Store) {
	jobs := seedJobs(t, s, 5)
	ctx := context.Background()

	require.NoError(t, s.DeleteJob(ctx, jobs[2].ID))

	_, err := s.GetJob(ctx, jobs[2].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assertDense(t, s)

	orders := allOrders(t, s)
	assert.Equal(t, 2, orders[jobs[3].ID])
}

func newCandidate(name, email, stage string, jobID uuid.UUID, appliedAt time.Time) *models.Candidate {
	return &models.Candidate{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Stage:     stage,
		JobID:     jobID,
		Notes:     []string{},
		Timeline:  []models.TimelineEntry{{Stage: models.StageApplied, Timestamp: appliedAt}},
		AppliedAt: appliedAt,
		UpdatedAt: appliedAt,
	}
}

func testCandidates(t *testing.T, s store.Store) {
	ctx := context.Background()
	jobA, jobB := uuid.New(), uuid.New()
	ts := now()
	ds := store.Dataset{Candidates: []*models.Candidate{
		newCandidate("Ada Lovelace", "ada@example.com", models.StageTech, jobA, ts.Add(-1*time.Hour)),
		newCandidate("Grace Hopper", "grace@navy.mil", models.StageOffer, jobA, ts.Add(-2*time.Hour)),
		newCandidate("Alan Turing", "alan@example.com", models.StageTech, jobB, ts.Add(-3*time.Hour)),
	}}
	require.NoError(t, s.BulkInsert(ctx, ds))

	got, total, err := s.ListCandidates(ctx, store.CandidateFilter{Search: "EXAMPLE"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Ada Lovelace", got[0].Name, "newest applicants first")

	_, total, err = s.ListCandidates(ctx, store.CandidateFilter{Stage: models.StageTech, JobID: jobA})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	got, total, err = s.ListCandidates(ctx, store.CandidateFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, got, 1)
	assert.Equal(t, "Alan Turing", got[0].Name)

	n, err := s.CountCandidates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func testCandidateUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := newCandidate("Ada", "ada@example.com", models.StageApplied, uuid.New(), now())
	require.NoError(t, s.CreateCandidate(ctx, c))
	assert.ErrorIs(t, s.CreateCandidate(ctx, c), store.ErrDuplicateKey)

	c.Stage = models.StageScreen
	c.Notes = []string{"strong portfolio"}
	c.Timeline = append(c.Timeline, models.TimelineEntry{Stage: models.StageScreen, Timestamp: now()})
	require.NoError(t, s.UpdateCandidate(ctx, c))

	got, err := s.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageScreen, got.Stage)
	assert.Equal(t, []string{"strong portfolio"}, got.Notes)
	require.Len(t, got.Timeline, 2)
	assert.Equal(t, models.StageScreen, got.Timeline[1].Stage)

	ghost := newCandidate("Ghost", "g@example.com", models.StageApplied, uuid.New(), now())
	assert.ErrorIs(t, s.UpdateCandidate(ctx, ghost), store.ErrNotFound)
	_, err = s.GetCandidate(ctx, ghost.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testAssessments(t *testing.T, s store.Store) {
	ctx := context.Background()
	jobID := uuid.New()
	maxLen := 200
	a := &models.Assessment{
		ID:    uuid.New(),
		JobID: jobID,
		Title: "Backend screen",
		Sections: []models.Section{{
			ID:    "s1",
			Title: "Basics",
			Questions: []models.Question{
				{ID: "q1", Type: models.QuestionShortText, Label: "Why us?",
					Validation: models.Validation{Required: true, MaxLength: &maxLen}},
			},
		}},
		CreatedAt: now(),
		UpdatedAt: now(),
	}
	require.NoError(t, s.UpsertAssessment(ctx, a))

	got, err := s.GetAssessmentByJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, "Backend screen", got.Title)
	require.Len(t, got.Questions(), 1)
	assert.Equal(t, 200, *got.Questions()[0].Validation.MaxLength)

	a.Title = "Backend screen v2"
	a.UpdatedAt = now().Add(time.Minute)
	require.NoError(t, s.UpsertAssessment(ctx, a))

	all, err := s.ListAssessments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Backend screen v2", all[0].Title)

	_, err = s.GetAssessmentByJob(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testResponses(t *testing.T, s store.Store) {
	ctx := context.Background()
	assessmentID := uuid.New()
	score := 0.5
	for i := 0; i < 2; i++ {
		require.NoError(t, s.CreateResponse(ctx, &models.AssessmentResponse{
			ID:           uuid.New(),
			AssessmentID: assessmentID,
			JobID:        uuid.New(),
			CandidateID:  uuid.New(),
			Answers:      []models.Answer{{QuestionID: "q1", Value: "because"}},
			SubmittedAt:  now().Add(time.Duration(i) * time.Second),
			Score:        &score,
		}))
	}

	got, err := s.ListResponses(ctx, assessmentID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "because", got[0].Answers[0].Value)
	require.NotNil(t, got[0].Score)
	assert.InDelta(t, 0.5, *got[0].Score, 1e-9)
}

func testSeedVersion(t *testing.T, s store.Store) {
	ctx := context.Background()
	v, err := s.SeedVersion(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, s.SetSeedVersion(ctx, 1))
	require.NoError(t, s.SetSeedVersion(ctx, 2))

	v, err = s.SeedVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}
