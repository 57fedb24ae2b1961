package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore implements Store over an on-disk SQLite database. List-valued columns
// are stored as JSON text and timestamps as Unix microseconds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore over an opened, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Jobs ---

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error) {
	conditions := []string{"1 = 1"}
	var args []any

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		conditions = append(conditions,
			`(LOWER(title) LIKE LOWER(?) ESCAPE '\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\' OR EXISTS (SELECT 1 FROM json_each(jobs.tags) WHERE LOWER(json_each.value) LIKE LOWER(?) ESCAPE '\'))`)
		p := likePattern(q)
		args = append(args, p, p, p)
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	_, limit, offset := Paginate(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
		pgJobColumns, where, jobOrderBy(filter.Sort))
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*models.Job{}
	for rows.Next() {
		j, err := scanSQLiteJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}

func (s *SQLiteStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return s.getJob(ctx, s.db, id)
}

type sqlQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) getJob(ctx context.Context, q sqlQuerier, id uuid.UUID) (*models.Job, error) {
	j, err := scanSQLiteJob(q.QueryRowContext(ctx, `SELECT `+pgJobColumns+` FROM jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (s *SQLiteStore) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (`+pgJobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		jobArgs(job)...)
	if err != nil {
		if isSQLiteConstraint(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateJob(ctx context.Context, job *models.Job) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET title = ?, slug = ?, status = ?, tags = ?, description = ?,
		   requirements = ?, location = ?, salary = ?, updated_at = ?
		 WHERE id = ?`,
		job.Title, job.Slug, job.Status, mustJSON(nonNil(job.Tags)), job.Description,
		mustJSON(nonNil(job.Requirements)), job.Location, job.Salary, toMicros(job.UpdatedAt), job.ID)
	if err != nil {
		if isSQLiteConstraint(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("update job: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLiteStore) ReorderJob(ctx context.Context, id uuid.UUID, toOrder int) (*models.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()

	var from, n int
	err = tx.QueryRowContext(ctx,
		`SELECT sort_order, (SELECT COUNT(*) FROM jobs) FROM jobs WHERE id = ?`, id).Scan(&from, &n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read job order: %w", err)
	}

	to := clampOrder(toOrder, n)
	now := toMicros(time.Now().UTC())
	if lo, hi, delta, ok := shiftRange(from, to); ok {
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET sort_order = sort_order + ?, updated_at = ?
			 WHERE id <> ? AND sort_order BETWEEN ? AND ?`, delta, now, id, lo, hi); err != nil {
			return nil, fmt.Errorf("shift job orders: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET sort_order = ?, updated_at = ? WHERE id = ?`, to, now, id); err != nil {
			return nil, fmt.Errorf("move job: %w", err)
		}
	}

	j, err := s.getJob(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reorder: %w", err)
	}
	return j, nil
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	var order int
	err = tx.QueryRowContext(ctx, `SELECT sort_order FROM jobs WHERE id = ?`, id).Scan(&order)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read job order: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE jobs SET sort_order = sort_order - 1 WHERE sort_order > ?`, order); err != nil {
		return fmt.Errorf("compact job orders: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) MaxJobOrder(ctx context.Context) (int, error) {
	var maxOrder int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(sort_order), 0) FROM jobs`).Scan(&maxOrder); err != nil {
		return 0, fmt.Errorf("max job order: %w", err)
	}
	return maxOrder, nil
}

func (s *SQLiteStore) CountJobs(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}

// --- Candidates ---

func (s *SQLiteStore) ListCandidates(ctx context.Context, filter CandidateFilter) ([]*models.Candidate, int, error) {
	conditions := []string{"1 = 1"}
	var args []any

	if filter.Stage != "" {
		conditions = append(conditions, "stage = ?")
		args = append(args, filter.Stage)
	}
	if filter.JobID != uuid.Nil {
		conditions = append(conditions, "job_id = ?")
		args = append(args, filter.JobID)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		conditions = append(conditions,
			`(LOWER(name) LIKE LOWER(?) ESCAPE '\' OR LOWER(email) LIKE LOWER(?) ESCAPE '\')`)
		p := likePattern(q)
		args = append(args, p, p)
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM candidates WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count candidates: %w", err)
	}

	_, limit, offset := Paginate(filter.Page, filter.PageSize)
	query := fmt.Sprintf(
		`SELECT %s FROM candidates WHERE %s ORDER BY applied_at DESC, id ASC LIMIT ? OFFSET ?`,
		pgCandidateColumns, where)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	out := []*models.Candidate{}
	for rows.Next() {
		c, err := scanSQLiteCandidate(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (s *SQLiteStore) GetCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	c, err := scanSQLiteCandidate(s.db.QueryRowContext(ctx,
		`SELECT `+pgCandidateColumns+` FROM candidates WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidates (`+pgCandidateColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		candidateArgs(c)...)
	if err != nil {
		if isSQLiteConstraint(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateCandidate(ctx context.Context, c *models.Candidate) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET name = ?, email = ?, stage = ?, job_id = ?, phone = ?,
		   resume = ?, cover_letter = ?, notes = ?, timeline = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Email, c.Stage, c.JobID, c.Phone, c.Resume, c.CoverLetter,
		mustJSON(nonNil(c.Notes)), mustJSON(timelineOrEmpty(c.Timeline)), toMicros(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLiteStore) CountCandidates(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count candidates: %w", err)
	}
	return n, nil
}

// --- Assessments ---

func (s *SQLiteStore) ListAssessments(ctx context.Context) ([]*models.Assessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pgAssessmentColumns+` FROM assessments ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	out := []*models.Assessment{}
	for rows.Next() {
		a, err := scanSQLiteAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetAssessmentByJob(ctx context.Context, jobID uuid.UUID) (*models.Assessment, error) {
	a, err := scanSQLiteAssessment(s.db.QueryRowContext(ctx,
		`SELECT `+pgAssessmentColumns+` FROM assessments WHERE job_id = ?
		 ORDER BY updated_at DESC LIMIT 1`, jobID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment by job: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) UpsertAssessment(ctx context.Context, a *models.Assessment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments (`+pgAssessmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   job_id = excluded.job_id,
		   title = excluded.title,
		   description = excluded.description,
		   sections = excluded.sections,
		   updated_at = excluded.updated_at`,
		assessmentArgs(a)...)
	if err != nil {
		return fmt.Errorf("upsert assessment: %w", err)
	}
	return nil
}

// --- Responses ---

func (s *SQLiteStore) CreateResponse(ctx context.Context, r *models.AssessmentResponse) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessment_responses (`+pgResponseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.AssessmentID, r.JobID, r.CandidateID, mustJSON(answersOrEmpty(r.Answers)),
		toMicros(r.SubmittedAt), r.Score)
	if err != nil {
		if isSQLiteConstraint(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create response: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListResponses(ctx context.Context, assessmentID uuid.UUID) ([]*models.AssessmentResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pgResponseColumns+` FROM assessment_responses
		 WHERE assessment_id = ? ORDER BY submitted_at ASC`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []*models.AssessmentResponse
	for rows.Next() {
		var (
			r         models.AssessmentResponse
			answers   string
			submitted int64
			score     sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.AssessmentID, &r.JobID, &r.CandidateID, &answers,
			&submitted, &score); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		r.SubmittedAt = fromMicros(submitted)
		if score.Valid {
			v := score.Float64
			r.Score = &v
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// --- Seeding ---

func (s *SQLiteStore) BulkInsert(ctx context.Context, ds Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback()

	jobStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO jobs (`+pgJobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare jobs: %w", err)
	}
	defer jobStmt.Close()
	for _, j := range ds.Jobs {
		if _, err := jobStmt.ExecContext(ctx, jobArgs(j)...); err != nil {
			return fmt.Errorf("insert job %s: %w", j.Slug, err)
		}
	}

	candStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO candidates (`+pgCandidateColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare candidates: %w", err)
	}
	defer candStmt.Close()
	for _, c := range ds.Candidates {
		if _, err := candStmt.ExecContext(ctx, candidateArgs(c)...); err != nil {
			return fmt.Errorf("insert candidate %s: %w", c.Email, err)
		}
	}

	for _, a := range ds.Assessments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assessments (`+pgAssessmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			assessmentArgs(a)...); err != nil {
			return fmt.Errorf("insert assessment: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) SeedVersion(ctx context.Context) (int, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = ?`, seedVersionKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *SQLiteStore) SetSeedVersion(ctx context.Context, version int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO store_meta (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`, seedVersionKey, strconv.Itoa(version))
	if err != nil {
		return fmt.Errorf("write seed version: %w", err)
	}
	return nil
}

// --- encoding ---

func jobArgs(j *models.Job) []any {
	return []any{j.ID, j.Title, j.Slug, j.Status, mustJSON(nonNil(j.Tags)), j.Order, j.Description,
		mustJSON(nonNil(j.Requirements)), j.Location, j.Salary, toMicros(j.CreatedAt), toMicros(j.UpdatedAt)}
}

func candidateArgs(c *models.Candidate) []any {
	return []any{c.ID, c.Name, c.Email, c.Stage, c.JobID, c.Phone, c.Resume, c.CoverLetter,
		mustJSON(nonNil(c.Notes)), mustJSON(timelineOrEmpty(c.Timeline)), toMicros(c.AppliedAt), toMicros(c.UpdatedAt)}
}

func assessmentArgs(a *models.Assessment) []any {
	return []any{a.ID, a.JobID, a.Title, a.Description, mustJSON(sectionsOrEmpty(a.Sections)),
		toMicros(a.CreatedAt), toMicros(a.UpdatedAt)}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteJob(row rowScanner) (*models.Job, error) {
	var (
		j                  models.Job
		tags, reqs         string
		created, updatedAt int64
	)
	if err := row.Scan(&j.ID, &j.Title, &j.Slug, &j.Status, &tags, &j.Order, &j.Description,
		&reqs, &j.Location, &j.Salary, &created, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &j.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(reqs), &j.Requirements); err != nil {
		return nil, fmt.Errorf("decode requirements: %w", err)
	}
	j.CreatedAt, j.UpdatedAt = fromMicros(created), fromMicros(updatedAt)
	return &j, nil
}

func scanSQLiteCandidate(row rowScanner) (*models.Candidate, error) {
	var (
		c                  models.Candidate
		notes, timeline    string
		applied, updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Stage, &c.JobID, &c.Phone, &c.Resume,
		&c.CoverLetter, &notes, &timeline, &applied, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	if err := json.Unmarshal([]byte(notes), &c.Notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	if err := json.Unmarshal([]byte(timeline), &c.Timeline); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	c.AppliedAt, c.UpdatedAt = fromMicros(applied), fromMicros(updatedAt)
	return &c, nil
}

func scanSQLiteAssessment(row rowScanner) (*models.Assessment, error) {
	var (
		a                  models.Assessment
		sections           string
		created, updatedAt int64
	)
	if err := row.Scan(&a.ID, &a.JobID, &a.Title, &a.Description, &sections, &created, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan assessment: %w", err)
	}
	if err := json.Unmarshal([]byte(sections), &a.Sections); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	a.CreatedAt, a.UpdatedAt = fromMicros(created), fromMicros(updatedAt)
	return &a, nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func toMicros(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromMicros(us int64) time.Time { return time.UnixMicro(us).UTC() }

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isSQLiteConstraint reports whether err is a primary key or unique violation.
func isSQLiteConstraint(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

var _ Store = (*SQLiteStore)(nil)
