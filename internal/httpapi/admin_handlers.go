package httpapi

import (
	"errors"
	"net/http"

	"github.com/sahilg28/skillsync-backend/internal/events"
	"github.com/sahilg28/skillsync-backend/internal/store"
)

// deleteJob removes a posting when hard deletes are enabled and deactivates it otherwise.
func (h handlers) deleteJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.d.HardDelete {
		h.softDelete(w, r, id)
		return
	}

	err := h.d.Store.DeleteJob(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, r, http.StatusNotFound, "Job not found", nil)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Error deleting job", err)
		return
	}

	h.jobEvent(r, events.JobDeleted, id)
	writeOK(w, http.StatusOK, "Job deleted successfully", nil)
}

func (h handlers) toggleJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	job, err := h.d.Store.GetJob(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, r, http.StatusNotFound, "Job not found", nil)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Error toggling job status", err)
		return
	}

	job, err = h.d.Store.SetJobActive(r.Context(), id, !job.IsActive)
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, r, http.StatusNotFound, "Job not found", nil)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Error toggling job status", err)
		return
	}

	typ, verb := events.JobDeactivated, "deactivated"
	if job.IsActive {
		typ, verb = events.JobActivated, "activated"
	}
	h.jobEvent(r, typ, id)
	writeOK(w, http.StatusOK, "Job "+verb+" successfully", job)
}
