// Package httputil centralizes JSON response writing and domain error
// translation so every handler emits the same envelope.
package httputil

import (
	"encoding/json"
	"net/http"

	derrors "passcheck/pkg/domain-errors"
)

// errorResponse is the JSON error envelope. The description is omitted for
// internal errors so backend details never reach clients.
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// statusFor maps domain error codes to HTTP status codes.
func statusFor(code derrors.Code) int {
	switch code {
	case derrors.CodeInvalidInput, derrors.CodeBadRequest:
		return http.StatusBadRequest
	case derrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case derrors.CodeForbidden:
		return http.StatusForbidden
	case derrors.CodeNotFound:
		return http.StatusNotFound
	case derrors.CodeConflict:
		return http.StatusConflict
	case derrors.CodeLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the JSON error envelope. Unclassified errors
// are treated as internal.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}
	if code != derrors.CodeInternal {
		resp.Description = derrors.MessageOf(err)
	}
	WriteJSON(w, statusFor(code), resp)
}
