package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sahilg28/skillsync-backend/internal/events"
	"github.com/sahilg28/skillsync-backend/internal/jobboard"
	"github.com/sahilg28/skillsync-backend/internal/logger"
	"github.com/sahilg28/skillsync-backend/internal/store"
)

type jobRequest struct {
	Title          string           `json:"title"`
	Company        string           `json:"company"`
	Location       string           `json:"location"`
	SkillsRequired []string         `json:"skillsRequired"`
	Description    string           `json:"description"`
	JobType        string           `json:"jobType"`
	Salary         *jobboard.Salary `json:"salary"`
	SalaryText     string           `json:"salaryText"`
	IsActive       *bool            `json:"isActive"`
}

// job builds a normalized posting. active is used when the body does not set isActive.
func (req jobRequest) job(id string, active bool) *jobboard.Job {
	j := &jobboard.Job{
		ID:             id,
		Title:          req.Title,
		Company:        req.Company,
		Location:       req.Location,
		SkillsRequired: req.SkillsRequired,
		Description:    req.Description,
		JobType:        jobboard.JobType(req.JobType),
		Salary:         req.Salary,
		SalaryText:     req.SalaryText,
		IsActive:       active,
	}
	if req.IsActive != nil {
		j.IsActive = *req.IsActive
	}
	j.Normalize()
	return j
}

func (h handlers) listActiveJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.d.Store.ListActiveJobs(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Error fetching jobs", err)
		return
	}
	writeOK(w, http.StatusOK, "", jobs)
}

func (h handlers) listAllJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.d.Store.ListJobs(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Error fetching jobs", err)
		return
	}
	writeOK(w, http.StatusOK, "", jobs)
}

func (h handlers) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.d.Store.GetJob(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, r, http.StatusNotFound, "Job not found", nil)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Error fetching job", err)
		return
	}
	writeOK(w, http.StatusOK, "", job)
}

func (h handlers) createJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job := req.job("", true)
	if err := job.Validate(); err != nil {
		h.invalid(w, r, err)
		return
	}

	created, err := h.d.Store.CreateJob(r.Context(), job)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Error creating job", err)
		return
	}

	h.jobEvent(r, events.JobCreated, created.ID)
	writeOK(w, http.StatusCreated, "Job created successfully", created)
}

func (h handlers) updateJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.d.Store.GetJob(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, r, http.StatusNotFound, "Job not found", nil)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Error updating job", err)
		return
	}

	var req jobRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job := req.job(id, existing.IsActive)
	if err := job.Validate(); err != nil {
		h.invalid(w, r, err)
		return
	}

	updated, err := h.d.Store.UpdateJob(r.Context(), job)
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, r, http.StatusNotFound, "Job not found", nil)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Error updating job", err)
		return
	}

	h.jobEvent(r, events.JobUpdated, updated.ID)
	writeOK(w, http.StatusOK, "Job updated successfully", updated)
}

// deactivateJob is the soft delete used by the public jobs route.
func (h handlers) deactivateJob(w http.ResponseWriter, r *http.Request) {
	h.softDelete(w, r, r.PathValue("id"))
}

func (h handlers) softDelete(w http.ResponseWriter, r *http.Request, id string) {
	_, err := h.d.Store.SetJobActive(r.Context(), id, false)
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, r, http.StatusNotFound, "Job not found", nil)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Error deleting job", err)
		return
	}

	h.jobEvent(r, events.JobDeactivated, id)
	writeOK(w, http.StatusOK, "Job deleted successfully", nil)
}

func (h handlers) jobEvent(r *http.Request, typ, jobID string) {
	reqID := RequestIDFrom(r.Context())
	id, _ := IdentityFrom(r.Context())

	fields := append(logger.RequestFields(reqID, id.UserID), zap.String(logger.FieldJobID, jobID))
	h.d.Logger.Info(typ, fields...)
	h.d.Publisher.Publish(r.Context(), typ, reqID, map[string]string{"id": jobID})
}
