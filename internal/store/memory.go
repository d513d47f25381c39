package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sahilg28/skillsync-backend/internal/jobboard"
)

// Memory keeps everything in process. Records are copied on the way in and out.
type Memory struct {
	mu       sync.RWMutex
	jobs     map[string]*jobboard.Job
	profiles map[string]*jobboard.Profile
}

func NewMemory() *Memory {
	return &Memory{
		jobs:     make(map[string]*jobboard.Job),
		profiles: make(map[string]*jobboard.Profile),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) GetProfileByUser(_ context.Context, userID string) (*jobboard.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) UpsertProfile(_ context.Context, profile *jobboard.Profile) (*jobboard.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts := now()
	stored := profile.Clone()
	stored.CreatedAt = ts
	if existing, ok := m.profiles[profile.UserID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	stored.UpdatedAt = ts
	m.profiles[profile.UserID] = stored

	return stored.Clone(), nil
}

func (m *Memory) ListActiveJobs(_ context.Context) ([]*jobboard.Job, error) {
	return m.list(true), nil
}

func (m *Memory) ListJobs(_ context.Context) ([]*jobboard.Job, error) {
	return m.list(false), nil
}

func (m *Memory) list(activeOnly bool) []*jobboard.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*jobboard.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if activeOnly && !j.IsActive {
			continue
		}
		out = append(out, j.Clone())
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

func (m *Memory) GetJob(_ context.Context, id string) (*jobboard.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j.Clone(), nil
}

func (m *Memory) CreateJob(_ context.Context, job *jobboard.Job) (*jobboard.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.insertLocked(job)
	return stored.Clone(), nil
}

func (m *Memory) insertLocked(job *jobboard.Job) *jobboard.Job {
	ts := now()
	stored := job.Clone()
	stored.ID = uuid.NewString()
	stored.CreatedAt = ts
	stored.UpdatedAt = ts
	m.jobs[stored.ID] = stored
	return stored
}

func (m *Memory) UpdateJob(_ context.Context, job *jobboard.Job) (*jobboard.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.jobs[job.ID]
	if !ok {
		return nil, ErrNotFound
	}

	stored := job.Clone()
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = now()
	m.jobs[job.ID] = stored

	return stored.Clone(), nil
}

func (m *Memory) SetJobActive(_ context.Context, id string, active bool) (*jobboard.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	j.IsActive = active
	j.UpdatedAt = now()

	return j.Clone(), nil
}

func (m *Memory) DeleteJob(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *Memory) ReplaceJobs(_ context.Context, jobs []*jobboard.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobs = make(map[string]*jobboard.Job, len(jobs))
	for _, j := range jobs {
		m.insertLocked(j)
	}
	return nil
}

func (m *Memory) DeactivateJobsBefore(_ context.Context, t time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	ts := now()
	for _, j := range m.jobs {
		if j.IsActive && j.UpdatedAt.Before(t) {
			j.IsActive = false
			j.UpdatedAt = ts
			n++
		}
	}
	return n, nil
}
