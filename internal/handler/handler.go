// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/pressroom/pressroom/internal/handler/dto"
	"github.com/pressroom/pressroom/internal/service"
)

// Handler serves the router-level endpoints.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Root reports that the API is up.
// GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "API is running"})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Route does not exist")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Message: message, Code: code})
}

// decodeJSON reads a JSON body into dst and writes the error response on failure.
// An empty body decodes as an empty object.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
	return false
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var validation *service.ValidationError
	var denied *service.DeniedError

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", validation.Message)
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusBadRequest, "USERNAME_TAKEN", "Username already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication invalid")
	case errors.As(err, &denied):
		writeError(w, http.StatusForbidden, "FORBIDDEN", denied.Message)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrArticleNotFound):
		writeError(w, http.StatusNotFound, "ARTICLE_NOT_FOUND", "Article not found")
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong, please try again later")
	}
}
