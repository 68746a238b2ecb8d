package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bibbank/fraud-detection/internal/domain/model"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, RequestID: RequestIDFromContext(r.Context())})
}

// statusFor maps a use case error to an HTTP status and the message shown
// to the caller. Internal failures are not exposed.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrProvidersUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case model.IsInputError(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeUseCaseError writes the mapped response and hands err to the access log.
func writeUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	recordFailure(r, err)
	writeError(w, r, status, msg)
}
