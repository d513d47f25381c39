// Package httpapi serves the job board JSON API.
package httpapi

import (
	"net/http"

	"github.com/sahilg28/skillsync-backend/internal/matching"
)

type handlers struct {
	failer
	d Deps
}

// NewHandler returns the API with its middleware chain applied.
func NewHandler(d Deps) http.Handler {
	d = d.withDefaults()
	h := handlers{d: d, failer: failer{production: d.Production, logger: d.Logger}}
	return Chain(newMux(h), RequestID, Recover(d.Logger), AccessLog(d.Logger), Cors)
}

func newMux(h handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.health)

	// Profile
	mux.HandleFunc("GET /api/profile", h.requireUser(h.getProfile))
	mux.HandleFunc("POST /api/profile", h.requireUser(h.upsertProfile))

	// Jobs
	mux.HandleFunc("GET /api/jobs", h.listActiveJobs)
	mux.HandleFunc("GET /api/jobs/{id}", h.getJob)
	mux.HandleFunc("POST /api/jobs", h.requireAdmin(h.createJob))
	mux.HandleFunc("PUT /api/jobs/{id}", h.requireAdmin(h.updateJob))
	mux.HandleFunc("DELETE /api/jobs/{id}", h.requireAdmin(h.deactivateJob))

	// Matching
	mux.HandleFunc("POST /api/jobs/matches", h.requireUser(h.findMatches(matching.ShapePlainList)))
	mux.HandleFunc("POST /api/matching/find-matches", h.requireUser(h.findMatches(matching.ShapePlainList)))
	mux.HandleFunc("POST /api/recommendations", h.requireUser(h.findMatches(matching.ShapeStructured)))

	// Admin
	mux.HandleFunc("GET /api/admin", h.requireAdmin(h.adminStatus))
	mux.HandleFunc("GET /api/admin/jobs", h.requireAdmin(h.listAllJobs))
	mux.HandleFunc("POST /api/admin/jobs", h.requireAdmin(h.createJob))
	mux.HandleFunc("PUT /api/admin/jobs/{id}", h.requireAdmin(h.updateJob))
	mux.HandleFunc("DELETE /api/admin/jobs/{id}", h.requireAdmin(h.deleteJob))
	mux.HandleFunc("PATCH /api/admin/jobs/{id}/toggle", h.requireAdmin(h.toggleJob))

	return mux
}
