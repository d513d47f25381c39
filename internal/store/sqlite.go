package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sahilg28/skillsync-backend/internal/jobboard"
)

// Fixed-width UTC layout so timestamps compare correctly as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const defaultSQLitePath = "skillsync.db"

type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultSQLitePath
	}

	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	stmts := []string{`
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL,
  skills_required TEXT NOT NULL DEFAULT '[]',
  description TEXT NOT NULL,
  job_type TEXT NOT NULL,
  salary TEXT NOT NULL DEFAULT '',
  salary_text TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS profiles (
  user_id TEXT PRIMARY KEY,
  location TEXT NOT NULL,
  years_of_experience REAL NOT NULL,
  skills TEXT NOT NULL DEFAULT '[]',
  preferred_job_type TEXT NOT NULL DEFAULT 'any',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_active_created ON jobs(is_active, created_at);`,
		`PRAGMA user_version = 1;`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const sqliteJobColumns = `id, title, company, location, skills_required, description, job_type, salary, salary_text, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteJob(row rowScanner) (*jobboard.Job, error) {
	var (
		j                    jobboard.Job
		skills, salary       string
		active               int
		createdAt, updatedAt string
	)
	if err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &skills, &j.Description,
		&j.JobType, &salary, &j.SalaryText, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(skills), &j.SkillsRequired); err != nil {
		return nil, fmt.Errorf("decode skills of job %s: %w", j.ID, err)
	}
	if salary != "" {
		j.Salary = &jobboard.Salary{}
		if err := json.Unmarshal([]byte(salary), j.Salary); err != nil {
			return nil, fmt.Errorf("decode salary of job %s: %w", j.ID, err)
		}
	}
	j.IsActive = active != 0
	j.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
	j.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updatedAt)

	return &j, nil
}

func encodeSQLiteJob(j *jobboard.Job) (skills, salary string, err error) {
	skillsJSON, err := json.Marshal(nonNil(j.SkillsRequired))
	if err != nil {
		return "", "", err
	}
	if j.Salary != nil {
		b, err := json.Marshal(j.Salary)
		if err != nil {
			return "", "", err
		}
		salary = string(b)
	}
	return string(skillsJSON), salary, nil
}

func (s *SQLite) GetProfileByUser(ctx context.Context, userID string) (*jobboard.Profile, error) {
	var (
		p                    jobboard.Profile
		skills               string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT user_id, location, years_of_experience, skills, preferred_job_type, created_at, updated_at
FROM profiles WHERE user_id = ?;`, userID).Scan(
		&p.UserID, &p.Location, &p.YearsOfExperience, &skills, &p.PreferredJobType, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if err := json.Unmarshal([]byte(skills), &p.Skills); err != nil {
		return nil, fmt.Errorf("decode profile skills: %w", err)
	}
	p.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
	p.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updatedAt)

	return &p, nil
}

func (s *SQLite) UpsertProfile(ctx context.Context, profile *jobboard.Profile) (*jobboard.Profile, error) {
	skills, err := json.Marshal(nonNil(profile.Skills))
	if err != nil {
		return nil, err
	}

	ts := now().Format(sqliteTimeLayout)
	_, err = s.db.ExecContext(ctx, `
INSERT INTO profiles (user_id, location, years_of_experience, skills, preferred_job_type, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  location = excluded.location,
  years_of_experience = excluded.years_of_experience,
  skills = excluded.skills,
  preferred_job_type = excluded.preferred_job_type,
  updated_at = excluded.updated_at;`,
		profile.UserID, profile.Location, profile.YearsOfExperience, string(skills), string(profile.PreferredJobType), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	return s.GetProfileByUser(ctx, profile.UserID)
}

func (s *SQLite) ListActiveJobs(ctx context.Context) ([]*jobboard.Job, error) {
	return s.queryJobs(ctx, `SELECT `+sqliteJobColumns+` FROM jobs WHERE is_active = 1 ORDER BY created_at DESC, id;`)
}

func (s *SQLite) ListJobs(ctx context.Context) ([]*jobboard.Job, error) {
	return s.queryJobs(ctx, `SELECT `+sqliteJobColumns+` FROM jobs ORDER BY created_at DESC, id;`)
}

func (s *SQLite) queryJobs(ctx context.Context, query string, args ...any) ([]*jobboard.Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	out := make([]*jobboard.Job, 0)
	for rows.Next() {
		j, err := scanSQLiteJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLite) GetJob(ctx context.Context, id string) (*jobboard.Job, error) {
	j, err := scanSQLiteJob(s.db.QueryRowContext(ctx, `SELECT `+sqliteJobColumns+` FROM jobs WHERE id = ?;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSQLiteJob(ctx context.Context, db sqlExecer, job *jobboard.Job) (string, error) {
	skills, salary, err := encodeSQLiteJob(job)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	ts := now().Format(sqliteTimeLayout)
	_, err = db.ExecContext(ctx, `
INSERT INTO jobs (`+sqliteJobColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		id, job.Title, job.Company, job.Location, skills, job.Description, string(job.JobType),
		salary, job.SalaryText, boolToInt(job.IsActive), ts, ts,
	)
	if err != nil {
		return "", fmt.Errorf("insert job: %w", err)
	}
	return id, nil
}

func (s *SQLite) CreateJob(ctx context.Context, job *jobboard.Job) (*jobboard.Job, error) {
	id, err := insertSQLiteJob(ctx, s.db, job)
	if err != nil {
		return nil, err
	}
	return s.GetJob(ctx, id)
}

func (s *SQLite) UpdateJob(ctx context.Context, job *jobboard.Job) (*jobboard.Job, error) {
	skills, salary, err := encodeSQLiteJob(job)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
UPDATE jobs SET title = ?, company = ?, location = ?, skills_required = ?, description = ?,
  job_type = ?, salary = ?, salary_text = ?, is_active = ?, updated_at = ?
WHERE id = ?;`,
		job.Title, job.Company, job.Location, skills, job.Description, string(job.JobType),
		salary, job.SalaryText, boolToInt(job.IsActive), now().Format(sqliteTimeLayout), job.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetJob(ctx, job.ID)
}

func (s *SQLite) SetJobActive(ctx context.Context, id string, active bool) (*jobboard.Job, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET is_active = ?, updated_at = ? WHERE id = ?;`,
		boolToInt(active), now().Format(sqliteTimeLayout), id)
	if err != nil {
		return nil, fmt.Errorf("set job active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetJob(ctx, id)
}

func (s *SQLite) DeleteJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) ReplaceJobs(ctx context.Context, jobs []*jobboard.Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs;`); err != nil {
		return fmt.Errorf("clear jobs: %w", err)
	}
	for _, j := range jobs {
		if _, err := insertSQLiteJob(ctx, tx, j); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLite) DeactivateJobsBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE jobs SET is_active = 0, updated_at = ?
WHERE is_active = 1 AND updated_at < ?;`,
		now().Format(sqliteTimeLayout), t.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return 0, fmt.Errorf("deactivate stale jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
