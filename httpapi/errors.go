package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	backoffice "github.com/omjyotish/backoffice"
)

// ErrorResponse is the JSON error envelope every endpoint uses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// writeError maps an engine error onto the wire taxonomy: 401 for
// unauthenticated callers, 403 for authenticated but refused ones, 400
// for malformed requests, 409 for conflicts, 429 when the login budget
// is exhausted, 500 for everything else.
func writeError(w http.ResponseWriter, err error) {
	var (
		status int
		label  string
	)

	switch {
	case errors.Is(err, backoffice.ErrLoginRateLimited):
		status, label = http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, backoffice.ErrUnauthenticated),
		errors.Is(err, backoffice.ErrTokenInvalid),
		errors.Is(err, backoffice.ErrSessionNotFound),
		errors.Is(err, backoffice.ErrInvalidCredentials):
		status, label = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, backoffice.ErrStaffNotFound),
		errors.Is(err, backoffice.ErrAccountDeactivated),
		errors.Is(err, backoffice.ErrInsufficientPermissions):
		status, label = http.StatusForbidden, "forbidden"
	case errors.Is(err, backoffice.ErrValidation),
		errors.Is(err, backoffice.ErrRoleInvalid),
		errors.Is(err, backoffice.ErrUnknownCollection):
		status, label = http.StatusBadRequest, "bad_request"
	case errors.Is(err, backoffice.ErrDuplicateEmail):
		status, label = http.StatusConflict, "conflict"
	default:
		status, label = http.StatusInternalServerError, "server_error"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal details stay in logs and audit, not on the wire.
		message = "internal error"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   label,
		Message: message,
		Code:    status,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
