package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sahilg28/skillsync-backend/internal/jobboard"
)

type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool, pings it and creates the schema if needed.
func OpenPostgres(ctx context.Context, connString string) (*Postgres, error) {
	connString = strings.TrimSpace(connString)
	if connString == "" {
		return nil, errors.New("postgres url is required")
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}

	return p, nil
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS jobs (
  id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  title           TEXT NOT NULL,
  company         TEXT NOT NULL,
  location        TEXT NOT NULL,
  skills_required TEXT[] NOT NULL DEFAULT '{}',
  description     TEXT NOT NULL,
  job_type        TEXT NOT NULL,
  salary_min      DOUBLE PRECISION,
  salary_max      DOUBLE PRECISION,
  salary_currency TEXT,
  salary_text     TEXT NOT NULL DEFAULT '',
  is_active       BOOLEAN NOT NULL DEFAULT TRUE,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_jobs_active_created ON jobs (is_active, created_at DESC);
CREATE TABLE IF NOT EXISTS profiles (
  user_id             TEXT PRIMARY KEY,
  location            TEXT NOT NULL,
  years_of_experience DOUBLE PRECISION NOT NULL,
  skills              TEXT[] NOT NULL DEFAULT '{}',
  preferred_job_type  TEXT NOT NULL DEFAULT 'any',
  created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`)
	return err
}

const pgJobColumns = `id::text, title, company, location, skills_required, description, job_type,
  salary_min, salary_max, salary_currency, salary_text, is_active, created_at, updated_at`

func scanPgJob(row pgx.Row) (*jobboard.Job, error) {
	var (
		j        jobboard.Job
		lo, hi   *float64
		currency *string
	)
	err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.SkillsRequired, &j.Description,
		&j.JobType, &lo, &hi, &currency, &j.SalaryText, &j.IsActive, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lo != nil || hi != nil || currency != nil {
		j.Salary = &jobboard.Salary{}
		if lo != nil {
			j.Salary.Min = *lo
		}
		if hi != nil {
			j.Salary.Max = *hi
		}
		if currency != nil {
			j.Salary.Currency = *currency
		}
	}
	j.CreatedAt = j.CreatedAt.UTC()
	j.UpdatedAt = j.UpdatedAt.UTC()

	return &j, nil
}

func salaryArgs(s *jobboard.Salary) (lo, hi *float64, currency *string) {
	if s == nil {
		return nil, nil, nil
	}
	return &s.Min, &s.Max, &s.Currency
}

// isInvalidID reports whether postgres rejected a malformed uuid literal.
func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func (p *Postgres) GetProfileByUser(ctx context.Context, userID string) (*jobboard.Profile, error) {
	var pr jobboard.Profile
	err := p.pool.QueryRow(ctx, `
SELECT user_id, location, years_of_experience, skills, preferred_job_type, created_at, updated_at
FROM profiles WHERE user_id = $1`, userID).Scan(
		&pr.UserID, &pr.Location, &pr.YearsOfExperience, &pr.Skills, &pr.PreferredJobType, &pr.CreatedAt, &pr.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	pr.CreatedAt = pr.CreatedAt.UTC()
	pr.UpdatedAt = pr.UpdatedAt.UTC()
	return &pr, nil
}

func (p *Postgres) UpsertProfile(ctx context.Context, profile *jobboard.Profile) (*jobboard.Profile, error) {
	var out jobboard.Profile
	ts := now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO profiles (user_id, location, years_of_experience, skills, preferred_job_type, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (user_id) DO UPDATE SET
  location = EXCLUDED.location,
  years_of_experience = EXCLUDED.years_of_experience,
  skills = EXCLUDED.skills,
  preferred_job_type = EXCLUDED.preferred_job_type,
  updated_at = EXCLUDED.updated_at
RETURNING user_id, location, years_of_experience, skills, preferred_job_type, created_at, updated_at`,
		profile.UserID, profile.Location, profile.YearsOfExperience, nonNil(profile.Skills), string(profile.PreferredJobType), ts,
	).Scan(&out.UserID, &out.Location, &out.YearsOfExperience, &out.Skills, &out.PreferredJobType, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()
	return &out, nil
}

func (p *Postgres) ListActiveJobs(ctx context.Context) ([]*jobboard.Job, error) {
	return p.queryJobs(ctx, `SELECT `+pgJobColumns+` FROM jobs WHERE is_active ORDER BY created_at DESC, id`)
}

func (p *Postgres) ListJobs(ctx context.Context) ([]*jobboard.Job, error) {
	return p.queryJobs(ctx, `SELECT `+pgJobColumns+` FROM jobs ORDER BY created_at DESC, id`)
}

func (p *Postgres) queryJobs(ctx context.Context, query string, args ...any) ([]*jobboard.Job, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	out := make([]*jobboard.Job, 0)
	for rows.Next() {
		j, err := scanPgJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (p *Postgres) GetJob(ctx context.Context, id string) (*jobboard.Job, error) {
	j, err := scanPgJob(p.pool.QueryRow(ctx, `SELECT `+pgJobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertPgJob(ctx context.Context, q pgQuerier, job *jobboard.Job) (*jobboard.Job, error) {
	lo, hi, currency := salaryArgs(job.Salary)
	ts := now()
	j, err := scanPgJob(q.QueryRow(ctx, `
INSERT INTO jobs (title, company, location, skills_required, description, job_type,
  salary_min, salary_max, salary_currency, salary_text, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
RETURNING `+pgJobColumns,
		job.Title, job.Company, job.Location, nonNil(job.SkillsRequired), job.Description, string(job.JobType),
		lo, hi, currency, job.SalaryText, job.IsActive, ts,
	))
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return j, nil
}

func (p *Postgres) CreateJob(ctx context.Context, job *jobboard.Job) (*jobboard.Job, error) {
	return insertPgJob(ctx, p.pool, job)
}

func (p *Postgres) UpdateJob(ctx context.Context, job *jobboard.Job) (*jobboard.Job, error) {
	lo, hi, currency := salaryArgs(job.Salary)
	j, err := scanPgJob(p.pool.QueryRow(ctx, `
UPDATE jobs SET title = $2, company = $3, location = $4, skills_required = $5, description = $6,
  job_type = $7, salary_min = $8, salary_max = $9, salary_currency = $10, salary_text = $11,
  is_active = $12, updated_at = $13
WHERE id = $1
RETURNING `+pgJobColumns,
		job.ID, job.Title, job.Company, job.Location, nonNil(job.SkillsRequired), job.Description, string(job.JobType),
		lo, hi, currency, job.SalaryText, job.IsActive, now(),
	))
	if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	return j, nil
}

func (p *Postgres) SetJobActive(ctx context.Context, id string, active bool) (*jobboard.Job, error) {
	j, err := scanPgJob(p.pool.QueryRow(ctx, `
UPDATE jobs SET is_active = $2, updated_at = $3 WHERE id = $1
RETURNING `+pgJobColumns, id, active, now()))
	if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set job active: %w", err)
	}
	return j, nil
}

func (p *Postgres) DeleteJob(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if isInvalidID(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ReplaceJobs(ctx context.Context, jobs []*jobboard.Job) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM jobs`); err != nil {
		return fmt.Errorf("clear jobs: %w", err)
	}
	for _, j := range jobs {
		if _, err := insertPgJob(ctx, tx, j); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (p *Postgres) DeactivateJobsBefore(ctx context.Context, t time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `
UPDATE jobs SET is_active = FALSE, updated_at = $1
WHERE is_active AND updated_at < $2`, now(), t)
	if err != nil {
		return 0, fmt.Errorf("deactivate stale jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}
