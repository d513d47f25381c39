package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sahilg28/skillsync-backend/internal/jobboard"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Data    any                   `json:"data,omitempty"`
	Errors  []jobboard.FieldError `json:"errors,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// failer writes failure envelopes. Raw error text is only exposed outside production.
type failer struct {
	production bool
	logger     *zap.Logger
}

func (f failer) fail(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	env := Envelope{Success: false, Message: message}
	if err != nil {
		if status >= http.StatusInternalServerError {
			f.logger.Error(message,
				zap.String("request_id", RequestIDFrom(r.Context())),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		if !f.production {
			env.Error = err.Error()
		}
	}
	WriteJSON(w, status, env)
}

// invalid answers 400 with the field violations of a ValidationError.
func (f failer) invalid(w http.ResponseWriter, r *http.Request, err error) {
	var verr *jobboard.ValidationError
	if !errors.As(err, &verr) {
		f.fail(w, r, http.StatusBadRequest, "Invalid request", err)
		return
	}
	WriteJSON(w, http.StatusBadRequest, Envelope{Success: false, Message: "Validation failed", Errors: verr.Fields})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}
