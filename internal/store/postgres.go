package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

const seedVersionKey = "seed_version"

const (
	pgJobColumns        = `id, title, slug, status, tags, sort_order, description, requirements, location, salary, created_at, updated_at`
	pgCandidateColumns  = `id, name, email, stage, job_id, phone, resume, cover_letter, notes, timeline, applied_at, updated_at`
	pgAssessmentColumns = `id, job_id, title, description, sections, created_at, updated_at`
	pgResponseColumns   = `id, assessment_id, job_id, candidate_id, answers, submitted_at, score`
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Jobs ---

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error) {
	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%[1]d OR description ILIKE $%[1]d OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $%[1]d))", argIdx))
		args = append(args, likePattern(q))
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM jobs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	_, limit, offset := Paginate(filter.Page, filter.PageSize)
	dataQuery := fmt.Sprintf(`SELECT %s FROM jobs WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		pgJobColumns, where, jobOrderBy(filter.Sort), argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*models.Job{}
	for rows.Next() {
		j, err := scanPgJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}

func jobOrderBy(sort string) string {
	switch normalizeSort(sort) {
	case SortTitle:
		return "LOWER(title) ASC, sort_order ASC"
	case SortCreated:
		return "created_at DESC, sort_order ASC"
	default:
		return "sort_order ASC, id ASC"
	}
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j, err := scanPgJob(s.pool.QueryRow(ctx,
		`SELECT `+pgJobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (`+pgJobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		job.ID, job.Title, job.Slug, job.Status, nonNil(job.Tags), job.Order, job.Description,
		nonNil(job.Requirements), job.Location, job.Salary, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateJob(ctx context.Context, job *models.Job) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET title = $2, slug = $3, status = $4, tags = $5, description = $6,
		   requirements = $7, location = $8, salary = $9, updated_at = $10
		 WHERE id = $1`,
		job.ID, job.Title, job.Slug, job.Status, nonNil(job.Tags), job.Description,
		nonNil(job.Requirements), job.Location, job.Salary, job.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ReorderJob(ctx context.Context, id uuid.UUID, toOrder int) (*models.Job, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize reorders so concurrent moves cannot interleave their shifts.
	if _, err := tx.Exec(ctx, `LOCK TABLE jobs IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("lock jobs: %w", err)
	}

	var from, n int
	err = tx.QueryRow(ctx, `SELECT sort_order, (SELECT COUNT(*) FROM jobs) FROM jobs WHERE id = $1`, id).
		Scan(&from, &n)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read job order: %w", err)
	}

	to := clampOrder(toOrder, n)
	if lo, hi, delta, ok := shiftRange(from, to); ok {
		if _, err := tx.Exec(ctx,
			`UPDATE jobs SET sort_order = sort_order + $1, updated_at = NOW()
			 WHERE id <> $2 AND sort_order BETWEEN $3 AND $4`, delta, id, lo, hi); err != nil {
			return nil, fmt.Errorf("shift job orders: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE jobs SET sort_order = $1, updated_at = NOW() WHERE id = $2`, to, id); err != nil {
			return nil, fmt.Errorf("move job: %w", err)
		}
	}

	j, err := scanPgJob(tx.QueryRow(ctx, `SELECT `+pgJobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("reload job: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reorder: %w", err)
	}
	return j, nil
}

func (s *PostgresStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `LOCK TABLE jobs IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock jobs: %w", err)
	}

	var order int
	err = tx.QueryRow(ctx, `DELETE FROM jobs WHERE id = $1 RETURNING sort_order`, id).Scan(&order)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE jobs SET sort_order = sort_order - 1 WHERE sort_order > $1`, order); err != nil {
		return fmt.Errorf("compact job orders: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) MaxJobOrder(ctx context.Context) (int, error) {
	var maxOrder int
	if err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(sort_order), 0) FROM jobs`).Scan(&maxOrder); err != nil {
		return 0, fmt.Errorf("max job order: %w", err)
	}
	return maxOrder, nil
}

func (s *PostgresStore) CountJobs(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}

// --- Candidates ---

func (s *PostgresStore) ListCandidates(ctx context.Context, filter CandidateFilter) ([]*models.Candidate, int, error) {
	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if filter.Stage != "" {
		conditions = append(conditions, fmt.Sprintf("stage = $%d", argIdx))
		args = append(args, filter.Stage)
		argIdx++
	}
	if filter.JobID != uuid.Nil {
		conditions = append(conditions, fmt.Sprintf("job_id = $%d", argIdx))
		args = append(args, filter.JobID)
		argIdx++
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%[1]d OR email ILIKE $%[1]d)", argIdx))
		args = append(args, likePattern(q))
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM candidates WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count candidates: %w", err)
	}

	_, limit, offset := Paginate(filter.Page, filter.PageSize)
	dataQuery := fmt.Sprintf(
		`SELECT %s FROM candidates WHERE %s ORDER BY applied_at DESC, id ASC LIMIT $%d OFFSET $%d`,
		pgCandidateColumns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	out := []*models.Candidate{}
	for rows.Next() {
		c, err := scanPgCandidate(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (s *PostgresStore) GetCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	c, err := scanPgCandidate(s.pool.QueryRow(ctx,
		`SELECT `+pgCandidateColumns+` FROM candidates WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO candidates (`+pgCandidateColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.Name, c.Email, c.Stage, c.JobID, c.Phone, c.Resume, c.CoverLetter,
		nonNil(c.Notes), timelineOrEmpty(c.Timeline), c.AppliedAt, c.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateCandidate(ctx context.Context, c *models.Candidate) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE candidates SET name = $2, email = $3, stage = $4, job_id = $5, phone = $6,
		   resume = $7, cover_letter = $8, notes = $9, timeline = $10, updated_at = $11
		 WHERE id = $1`,
		c.ID, c.Name, c.Email, c.Stage, c.JobID, c.Phone, c.Resume, c.CoverLetter,
		nonNil(c.Notes), timelineOrEmpty(c.Timeline), c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountCandidates(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count candidates: %w", err)
	}
	return n, nil
}

// --- Assessments ---

func (s *PostgresStore) ListAssessments(ctx context.Context) ([]*models.Assessment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgAssessmentColumns+` FROM assessments ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	out := []*models.Assessment{}
	for rows.Next() {
		a, err := scanPgAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetAssessmentByJob(ctx context.Context, jobID uuid.UUID) (*models.Assessment, error) {
	a, err := scanPgAssessment(s.pool.QueryRow(ctx,
		`SELECT `+pgAssessmentColumns+` FROM assessments WHERE job_id = $1
		 ORDER BY updated_at DESC LIMIT 1`, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment by job: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) UpsertAssessment(ctx context.Context, a *models.Assessment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO assessments (`+pgAssessmentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   job_id = EXCLUDED.job_id,
		   title = EXCLUDED.title,
		   description = EXCLUDED.description,
		   sections = EXCLUDED.sections,
		   updated_at = EXCLUDED.updated_at`,
		a.ID, a.JobID, a.Title, a.Description, sectionsOrEmpty(a.Sections), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert assessment: %w", err)
	}
	return nil
}

// --- Responses ---

func (s *PostgresStore) CreateResponse(ctx context.Context, r *models.AssessmentResponse) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO assessment_responses (`+pgResponseColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.AssessmentID, r.JobID, r.CandidateID, answersOrEmpty(r.Answers), r.SubmittedAt, r.Score)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create response: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListResponses(ctx context.Context, assessmentID uuid.UUID) ([]*models.AssessmentResponse, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgResponseColumns+` FROM assessment_responses
		 WHERE assessment_id = $1 ORDER BY submitted_at ASC`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []*models.AssessmentResponse
	for rows.Next() {
		var r models.AssessmentResponse
		if err := rows.Scan(&r.ID, &r.AssessmentID, &r.JobID, &r.CandidateID, &r.Answers,
			&r.SubmittedAt, &r.Score); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// --- Seeding ---

func (s *PostgresStore) BulkInsert(ctx context.Context, ds Dataset) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback(ctx)

	jobRows := make([][]any, 0, len(ds.Jobs))
	for _, j := range ds.Jobs {
		jobRows = append(jobRows, []any{j.ID, j.Title, j.Slug, j.Status, nonNil(j.Tags), j.Order,
			j.Description, nonNil(j.Requirements), j.Location, j.Salary, j.CreatedAt, j.UpdatedAt})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"jobs"}, splitColumns(pgJobColumns),
		pgx.CopyFromRows(jobRows)); err != nil {
		return fmt.Errorf("copy jobs: %w", err)
	}

	candRows := make([][]any, 0, len(ds.Candidates))
	for _, c := range ds.Candidates {
		candRows = append(candRows, []any{c.ID, c.Name, c.Email, c.Stage, c.JobID, c.Phone, c.Resume,
			c.CoverLetter, nonNil(c.Notes), timelineOrEmpty(c.Timeline), c.AppliedAt, c.UpdatedAt})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"candidates"}, splitColumns(pgCandidateColumns),
		pgx.CopyFromRows(candRows)); err != nil {
		return fmt.Errorf("copy candidates: %w", err)
	}

	batch := &pgx.Batch{}
	for _, a := range ds.Assessments {
		batch.Queue(`INSERT INTO assessments (`+pgAssessmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.ID, a.JobID, a.Title, a.Description, sectionsOrEmpty(a.Sections), a.CreatedAt, a.UpdatedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert assessments: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) SeedVersion(ctx context.Context) (int, error) {
	var v string
	err := s.pool.QueryRow(ctx, `SELECT value FROM store_meta WHERE key = $1`, seedVersionKey).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read seed version: %w", err)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse seed version %q: %w", v, err)
	}
	return n, nil
}

func (s *PostgresStore) SetSeedVersion(ctx context.Context, version int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO store_meta (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, seedVersionKey, strconv.Itoa(version))
	if err != nil {
		return fmt.Errorf("write seed version: %w", err)
	}
	return nil
}

// --- scanning ---

func scanPgJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	if err := row.Scan(&j.ID, &j.Title, &j.Slug, &j.Status, &j.Tags, &j.Order, &j.Description,
		&j.Requirements, &j.Location, &j.Salary, &j.CreatedAt, &j.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}

func scanPgCandidate(row pgx.Row) (*models.Candidate, error) {
	var c models.Candidate
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Stage, &c.JobID, &c.Phone, &c.Resume,
		&c.CoverLetter, &c.Notes, &c.Timeline, &c.AppliedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	return &c, nil
}

func scanPgAssessment(row pgx.Row) (*models.Assessment, error) {
	var a models.Assessment
	if err := row.Scan(&a.ID, &a.JobID, &a.Title, &a.Description, &a.Sections,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan assessment: %w", err)
	}
	return &a, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

func splitColumns(cols string) []string {
	parts := strings.Split(cols, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

var _ Store = (*PostgresStore)(nil)
