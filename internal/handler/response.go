// Package handler holds the HTTP handlers of the JSON API.
//
// Handlers decode the request, call one service method and write the
// result. Every error response has the same shape:
//
//	{"error": "not_found", "message": "recipe not found with id ..."}
//
// with an optional "field" for validation failures.
package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/sakif/foodgram/internal/apperror"
)

// maxBodyBytes caps request bodies. Recipe images travel as references,
// so bodies stay small.
const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON body of every error reply. Error is the
// machine-readable kind; Field names the offending input, if any.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// statusByKind maps apperror kinds to HTTP status codes. Kinds missing
// here are internal errors.
var statusByKind = map[string]int{
	"not_found":                http.StatusNotFound,
	"already_exists":           http.StatusBadRequest,
	"validation_error":         http.StatusBadRequest,
	"self_reference_forbidden": http.StatusBadRequest,
	"empty_cart":               http.StatusBadRequest,
	"forbidden":                http.StatusForbidden,
	"unauthorized":             http.StatusUnauthorized,
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates err to a status code and the standard error body.
// Errors that are not *apperror.AppError are logged and reported as a
// generic 500 so storage details never leak to the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := apperror.Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		logger.Error("internal error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "an internal error occurred",
		})
		return
	}

	var appErr *apperror.AppError
	errors.As(err, &appErr)
	writeJSON(w, status, ErrorResponse{
		Error:   kind,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// decodeJSON reads a single JSON object from the body into v. Unknown
// fields and trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return apperror.ValidationFailed("", "request body is too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("", "request body is empty")
		}
		return apperror.ValidationFailed("", "invalid JSON body: "+err.Error())
	}
	if dec.More() {
		return apperror.ValidationFailed("", "request body must contain a single JSON object")
	}
	return nil
}
