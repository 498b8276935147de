// Package handler implements the HTTP endpoints. Handlers decode requests,
// call the service layer, and translate domain errors into status codes.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ThomasConrad/PlantTracker/internal/apperror"
	"github.com/ThomasConrad/PlantTracker/internal/repository"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps a domain error onto the HTTP error contract:
// malformed request 400, unauthorized 401, not found 404, validation
// failure 422, everything else 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message := appErr.Message
		if appErr.Field != "" {
			message = appErr.Field + " " + appErr.Message
		}

		switch {
		case errors.Is(appErr, apperror.ErrMalformed):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: message})
		case errors.Is(appErr, apperror.ErrUnauthorized):
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: message})
		case errors.Is(appErr, apperror.ErrNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: message})
		case errors.Is(appErr, apperror.ErrValidation):
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "validation_error", Message: message})
		default:
			logger.Error("unclassified app error", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "internal server error"})
		}
		return
	}

	logger.Error("internal error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "internal server error"})
}

// decodeJSON parses the request body into dst. Any parse failure is a
// malformed request, never a validation error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.Malformed("invalid JSON body")
	}
	return nil
}

// listOptions reads limit/offset pagination from the query string. Absent
// or unparsable values fall back to the repository defaults.
func listOptions(r *http.Request) repository.ListOptions {
	var opts repository.ListOptions
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}
	return opts
}
