package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"roastme-backend/internal/services"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, payload interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, ErrorResponse{Error: message}, statusCode)
}

// decodeJSON reads a bounded JSON request body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// notFound is the message shown for ErrNotFound.
func respondServiceError(w http.ResponseWriter, err error, notFound string) {
	var validationErr *services.ValidationError
	var persistenceErr *services.PersistenceError

	switch {
	case errors.As(err, &validationErr):
		respondError(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrUnauthorized):
		respondError(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, services.ErrFeatureDisabled):
		respondError(w, "feature disabled", http.StatusForbidden)
	case errors.Is(err, services.ErrNotFound):
		respondError(w, notFound, http.StatusNotFound)
	case errors.As(err, &persistenceErr):
		log.Error().Err(err).Str("op", persistenceErr.Op).Msg("Storage operation failed")
		respondError(w, "internal server error", http.StatusInternalServerError)
	default:
		log.Error().Err(err).Msg("Request failed")
		respondError(w, "internal server error", http.StatusInternalServerError)
	}
}

// queryInt parses an integer query parameter, returning def when absent or
// malformed
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
