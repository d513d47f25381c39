package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilg28/skillsync-backend/internal/ai"
	"github.com/sahilg28/skillsync-backend/internal/jobboard"
	"github.com/sahilg28/skillsync-backend/internal/matching"
	"github.com/sahilg28/skillsync-backend/internal/store"
)

type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) Publish(_ context.Context, typ, _ string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, typ)
}

type stubMatcher struct {
	outcome *matching.Outcome
	err     error
	panics  bool
	shapes  []matching.Shape
	users   []string
}

func (s *stubMatcher) FindMatches(_ context.Context, userID string, shape matching.Shape) (*matching.Outcome, error) {
	if s.panics {
		panic("boom")
	}
	s.users = append(s.users, userID)
	s.shapes = append(s.shapes, shape)
	return s.outcome, s.err
}

type testAPI struct {
	handler http.Handler
	store   *store.Memory
	events  *recorder
	matcher *stubMatcher
}

func newTestAPI(t *testing.T, mutate func(d *Deps)) *testAPI {
	t.Helper()
	api := &testAPI{
		store:   store.NewMemory(),
		events:  &recorder{},
		matcher: &stubMatcher{outcome: &matching.Outcome{}},
	}
	d := Deps{Store: api.store, Matcher: api.matcher, Publisher: api.events}
	if mutate != nil {
		mutate(&d)
	}
	api.handler = NewHandler(d)
	return api
}

type caller struct {
	userID string
	role   string
}

var (
	anonymous = caller{}
	user      = caller{userID: "u1"}
	admin     = caller{userID: "a1", role: "admin"}
)

func (a *testAPI) do(t *testing.T, c caller, method, path string, body any) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}
	if c.role != "" {
		req.Header.Set("X-User-Role", c.role)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Data
}

func validJobBody() map[string]any {
	return map[string]any{
		"title":          "Backend Engineer",
		"company":        "DataSystems",
		"location":       "Austin, TX",
		"skillsRequired": []string{"Node.js", "AWS"},
		"description":    "Build scalable systems",
		"jobType":        "onsite",
		"salary":         map[string]any{"min": 110000, "max": 150000},
	}
}

func TestHealthAndRequestID(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, _ := api.do(t, anonymous, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"API up and running"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestProfileRoutes(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, _ := api.do(t, anonymous, http.MethodGet, "/api/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := api.do(t, user, http.MethodGet, "/api/profile", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Profile not found", env.Message)

	rec, env = api.do(t, user, http.MethodPost, "/api/profile", map[string]any{
		"location":          "Remote",
		"yearsOfExperience": -2,
		"skills":            []string{"React"},
		"preferredJobType":  "hybrid",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.Errors, 2)
	assert.Equal(t, "Years of experience cannot be negative", env.Errors[0].Message)
	assert.Equal(t, "preferredJobType", env.Errors[1].Field)

	rec, env = api.do(t, user, http.MethodPost, "/api/profile", map[string]any{
		"location": "Remote",
		"skills":   []string{"React"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "Years of experience must be a number", env.Errors[0].Message)

	rec, env = api.do(t, user, http.MethodPost, "/api/profile", map[string]any{
		"location":          " Remote ",
		"yearsOfExperience": 3,
		"skills":            []string{"React", " Node.js "},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Profile updated successfully", env.Message)

	rec, _ = api.do(t, user, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decodeData[jobboard.Profile](t, rec)
	assert.Equal(t, "u1", profile.UserID)
	assert.Equal(t, "Remote", profile.Location)
	assert.Equal(t, []string{"React", "Node.js"}, profile.Skills)
	assert.Equal(t, jobboard.PreferAny, profile.PreferredJobType)

	assert.Equal(t, []string{"profile.upserted"}, api.events.types)
}

func TestJobRoutes(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, _ := api.do(t, user, http.MethodPost, "/api/jobs", validJobBody())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	invalid := validJobBody()
	invalid["title"] = " "
	invalid["skillsRequired"] = []string{}
	rec, env := api.do(t, admin, http.MethodPost, "/api/jobs", invalid)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.Errors, 2)
	assert.Equal(t, "Job title is required", env.Errors[0].Message)

	rec, env = api.do(t, admin, http.MethodPost, "/api/jobs", validJobBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Job created successfully", env.Message)
	created := decodeData[jobboard.Job](t, rec)
	assert.True(t, created.IsActive)
	require.NotNil(t, created.Salary)
	assert.Equal(t, "USD", created.Salary.Currency)

	rec, _ = api.do(t, anonymous, http.MethodGet, "/api/jobs/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = api.do(t, anonymous, http.MethodGet, "/api/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job not found", env.Message)

	update := validJobBody()
	update["title"] = "Staff Backend Engineer"
	rec, _ = api.do(t, admin, http.MethodPut, "/api/jobs/"+created.ID, update)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Staff Backend Engineer", decodeData[jobboard.Job](t, rec).Title)

	rec, _ = api.do(t, admin, http.MethodPut, "/api/jobs/missing", update)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = api.do(t, admin, http.MethodDelete, "/api/jobs/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Job deleted successfully", env.Message)

	rec, _ = api.do(t, anonymous, http.MethodGet, "/api/jobs", nil)
	assert.Empty(t, decodeData[[]jobboard.Job](t, rec))

	// soft deleted postings are still readable by id
	rec, _ = api.do(t, anonymous, http.MethodGet, "/api/jobs/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeData[jobboard.Job](t, rec).IsActive)

	assert.Equal(t, []string{"job.created", "job.updated", "job.deactivated"}, api.events.types)
}

func TestAdminRoutes(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, _ := api.do(t, user, http.MethodGet, "/api/admin", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(t, admin, http.MethodGet, "/api/admin", nil)
	assert.JSONEq(t, `{"status":"Admin routes working"}`, rec.Body.String())

	rec, _ = api.do(t, admin, http.MethodPost, "/api/admin/jobs", validJobBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeData[jobboard.Job](t, rec).ID

	rec, env := api.do(t, admin, http.MethodPatch, "/api/admin/jobs/"+id+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Job deactivated successfully", env.Message)

	rec, _ = api.do(t, admin, http.MethodGet, "/api/admin/jobs", nil)
	all := decodeData[[]jobboard.Job](t, rec)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)

	_, env = api.do(t, admin, http.MethodPatch, "/api/admin/jobs/"+id+"/toggle", nil)
	assert.Equal(t, "Job activated successfully", env.Message)

	// soft delete by default
	rec, _ = api.do(t, admin, http.MethodDelete, "/api/admin/jobs/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	job, err := api.store.GetJob(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, job.IsActive)

	rec, _ = api.do(t, admin, http.MethodPatch, "/api/admin/jobs/missing/toggle", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHardDelete(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) { d.HardDelete = true })

	rec, _ := api.do(t, admin, http.MethodPost, "/api/admin/jobs", validJobBody())
	id := decodeData[jobboard.Job](t, rec).ID

	rec, _ = api.do(t, admin, http.MethodDelete, "/api/admin/jobs/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := api.store.GetJob(context.Background(), id)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	rec, _ = api.do(t, admin, http.MethodDelete, "/api/admin/jobs/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, []string{"job.created", "job.deleted"}, api.events.types)
}

func TestMatchingRoutes(t *testing.T) {
	api := newTestAPI(t, nil)
	score := 88.0
	api.matcher.outcome = &matching.Outcome{Matches: []matching.Match{{
		Job:          &jobboard.Job{ID: "j1", Title: "JobB", SkillsRequired: []string{"React"}, IsActive: true},
		SkillMatches: 1,
		MatchScore:   &score,
		Reasoning:    "fits",
	}}}

	rec, _ := api.do(t, anonymous, http.MethodPost, "/api/recommendations", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for path, shape := range map[string]matching.Shape{
		"/api/jobs/matches":          matching.ShapePlainList,
		"/api/matching/find-matches": matching.ShapePlainList,
		"/api/recommendations":       matching.ShapeStructured,
	} {
		rec, env := api.do(t, user, http.MethodPost, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.True(t, env.Success)
		assert.Equal(t, shape, api.matcher.shapes[len(api.matcher.shapes)-1])
	}
	assert.Equal(t, "u1", api.matcher.users[0])

	rec, _ = api.do(t, user, http.MethodPost, "/api/recommendations", nil)
	var body struct {
		Data struct {
			Matches []map[string]any `json:"matches"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Matches, 1)
	m := body.Data.Matches[0]
	assert.Equal(t, "JobB", m["title"])
	assert.Equal(t, float64(1), m["skillMatches"])
	assert.Equal(t, 88.0, m["matchScore"])
	assert.Equal(t, "fits", m["reasoning"])
}

func TestMatchingErrors(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{matching.ErrMissingProfile, http.StatusNotFound, "User profile not found"},
		{matching.ErrEmptyCandidateSet, http.StatusNotFound, "No jobs available"},
		{fmt.Errorf("%w: 429", ai.ErrGatewayQuotaExceeded), http.StatusServiceUnavailable, "Error finding job matches"},
		{fmt.Errorf("%w: slow", ai.ErrGatewayTimeout), http.StatusGatewayTimeout, "Error finding job matches"},
		{fmt.Errorf("%w: bad json", matching.ErrMalformedGatewayPayload), http.StatusInternalServerError, "Error finding job matches"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			api := newTestAPI(t, nil)
			api.matcher.err = tt.err

			rec, env := api.do(t, user, http.MethodPost, "/api/matching/find-matches", nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
			assert.Equal(t, tt.err.Error(), env.Error)
		})
	}
}

func TestProductionHidesErrorDetail(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) { d.Production = true })
	api.matcher.err = fmt.Errorf("%w: upstream said no", ai.ErrGatewayUnavailable)

	rec, env := api.do(t, user, http.MethodPost, "/api/recommendations", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, env.Error)
	assert.NotContains(t, rec.Body.String(), "upstream said no")
}

func TestRecoverAndCors(t *testing.T) {
	api := newTestAPI(t, nil)
	api.matcher.panics = true

	rec, env := api.do(t, user, http.MethodPost, "/api/jobs/matches", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", env.Message)

	req := httptest.NewRequest(http.MethodOptions, "/api/jobs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
