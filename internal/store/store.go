// Package store persists profiles and job postings.
//
// Three backends share the same contract: an in-memory store for development and
// tests, SQLite for single-node deployments and PostgreSQL for production.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sahilg28/skillsync-backend/internal/jobboard"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("not found")

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type ProfileStore interface {
	GetProfileByUser(ctx context.Context, userID string) (*jobboard.Profile, error)
	// UpsertProfile creates the user's profile or replaces the existing one.
	UpsertProfile(ctx context.Context, profile *jobboard.Profile) (*jobboard.Profile, error)
}

type JobStore interface {
	// ListActiveJobs returns active postings, newest first.
	ListActiveJobs(ctx context.Context) ([]*jobboard.Job, error)
	// ListJobs returns every posting including inactive ones, newest first.
	ListJobs(ctx context.Context) ([]*jobboard.Job, error)
	GetJob(ctx context.Context, id string) (*jobboard.Job, error)
	CreateJob(ctx context.Context, job *jobboard.Job) (*jobboard.Job, error)
	UpdateJob(ctx context.Context, job *jobboard.Job) (*jobboard.Job, error)
	SetJobActive(ctx context.Context, id string, active bool) (*jobboard.Job, error)
	DeleteJob(ctx context.Context, id string) error
	// ReplaceJobs removes every posting and inserts the given ones.
	ReplaceJobs(ctx context.Context, jobs []*jobboard.Job) error
	// DeactivateJobsBefore soft-deletes active postings last updated before t.
	DeactivateJobsBefore(ctx context.Context, t time.Time) (int64, error)
}

type Store interface {
	ProfileStore
	JobStore
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver      string `mapstructure:"driver"`
	SQLitePath  string `mapstructure:"sqlite-path"`
	PostgresURL string `mapstructure:"postgres-url"`
}

// IsEphemeral reports whether cfg selects the in-memory backend.
func IsEphemeral(cfg Config) bool {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	return driver == "" || driver == DriverMemory
}

// Open builds the backend named by cfg.Driver and prepares its schema.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.PostgresURL)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

var now = func() time.Time { return time.Now().UTC() }
