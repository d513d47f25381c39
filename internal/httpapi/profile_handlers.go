package httpapi

import (
	"errors"
	"math"
	"net/http"

	"github.com/sahilg28/skillsync-backend/internal/events"
	"github.com/sahilg28/skillsync-backend/internal/jobboard"
	"github.com/sahilg28/skillsync-backend/internal/logger"
	"github.com/sahilg28/skillsync-backend/internal/store"
)

type profileRequest struct {
	Location          string   `json:"location"`
	YearsOfExperience *float64 `json:"yearsOfExperience"`
	Skills            []string `json:"skills"`
	PreferredJobType  string   `json:"preferredJobType"`
}

func (h handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	profile, err := h.d.Store.GetProfileByUser(r.Context(), id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, r, http.StatusNotFound, "Profile not found", nil)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Error fetching profile", err)
		return
	}
	writeOK(w, http.StatusOK, "", profile)
}

func (h handlers) upsertProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	var req profileRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	profile := &jobboard.Profile{
		UserID:            id.UserID,
		Location:          req.Location,
		YearsOfExperience: math.NaN(),
		Skills:            req.Skills,
		PreferredJobType:  jobboard.PreferredJobType(req.PreferredJobType),
	}
	if req.YearsOfExperience != nil {
		profile.YearsOfExperience = *req.YearsOfExperience
	}
	profile.Normalize()
	if err := profile.Validate(); err != nil {
		h.invalid(w, r, err)
		return
	}

	saved, err := h.d.Store.UpsertProfile(r.Context(), profile)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Error updating profile", err)
		return
	}

	h.d.Logger.Info("profile upserted", logger.RequestFields(RequestIDFrom(r.Context()), id.UserID)...)
	h.d.Publisher.Publish(r.Context(), events.ProfileUpserted, RequestIDFrom(r.Context()), map[string]string{"userId": saved.UserID})
	writeOK(w, http.StatusOK, "Profile updated successfully", saved)
}

