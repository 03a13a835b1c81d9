package handlers

import (
	"context"
	"errors"
	"net/http"

	"roastme-backend/internal/middleware"
	"roastme-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// Presigner issues upload URLs
type Presigner interface {
	Presign(ctx context.Context, req services.UploadRequest, fingerprint string) (*services.UploadResponse, error)
}

// UploadHandler handles image upload HTTP requests
type UploadHandler struct {
	presigner Presigner
}

// NewUploadHandler creates a new upload handler. A nil presigner means
// uploads are not configured.
func NewUploadHandler(presigner Presigner) *UploadHandler {
	return &UploadHandler{presigner: presigner}
}

// Presign handles POST /api/v1/uploads
func (h *UploadHandler) Presign(w http.ResponseWriter, r *http.Request) {
	if h.presigner == nil {
		respondError(w, "uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	var req services.UploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fp := middleware.GetFingerprint(r.Context())
	resp, err := h.presigner.Presign(r.Context(), req, fp)
	if err != nil {
		var validationErr *services.ValidationError
		if !errors.As(err, &validationErr) {
			log.Error().Err(err).Str("fingerprint", fp).Msg("Failed to presign upload")
		}
		respondServiceError(w, err, "not found")
		return
	}
	respondJSON(w, resp, http.StatusOK)
}
