package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
	"github.com/iammorganparry/clive/apps/regression/internal/render"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError quotes the request id so a failure report can be matched to
// the server log line.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: w.Header().Get(requestIDHeader)})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeErr maps a domain error to its HTTP status. Remote failures keep the
// service's message verbatim.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	var remote *models.RemoteError
	switch {
	case errors.As(err, &remote):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrBusy),
		errors.Is(err, models.ErrWrongState),
		errors.Is(err, models.ErrNoSession):
		return http.StatusConflict
	case models.IsValidation(err), errors.Is(err, render.ErrUnsupportedChart):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
