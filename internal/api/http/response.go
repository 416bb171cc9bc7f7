package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tabletap/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the core taxonomy onto HTTP statuses. Contention is
// the only retryable kind and advertises itself as such.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidTransition),
		errors.Is(err, core.ErrInvalidOperation),
		errors.Is(err, core.ErrAlreadyReady),
		errors.Is(err, core.ErrExceedsBalance),
		errors.Is(err, core.ErrAlreadySettled),
		errors.Is(err, core.ErrAlreadyRefunded),
		errors.Is(err, core.ErrNotRefundable):
		status = http.StatusConflict
	case errors.Is(err, core.ErrContention):
		status = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
