package httpapi

import (
	"errors"
	"net/http"

	"github.com/sahilg28/skillsync-backend/internal/ai"
	"github.com/sahilg28/skillsync-backend/internal/matching"
)

type matchesData struct {
	Matches []matching.Match `json:"matches"`
}

func (h handlers) findMatches(shape matching.Shape) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		outcome, err := h.d.Matcher.FindMatches(r.Context(), id.UserID, shape)
		if err != nil {
			status, message := matchFailure(err)
			h.fail(w, r, status, message, err)
			return
		}

		writeOK(w, http.StatusOK, "", matchesData{Matches: outcome.Matches})
	}
}

func matchFailure(err error) (int, string) {
	switch {
	case errors.Is(err, matching.ErrMissingProfile):
		return http.StatusNotFound, "User profile not found"
	case errors.Is(err, matching.ErrEmptyCandidateSet):
		return http.StatusNotFound, "No jobs available"
	case errors.Is(err, ai.ErrGatewayQuotaExceeded):
		return http.StatusServiceUnavailable, "Error finding job matches"
	case errors.Is(err, ai.ErrGatewayTimeout):
		return http.StatusGatewayTimeout, "Error finding job matches"
	default:
		return http.StatusInternalServerError, "Error finding job matches"
	}
}
