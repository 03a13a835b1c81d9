package handlers

import (
	"context"
	"errors"
	"net/http"

	"roastme-backend/internal/middleware"
	"roastme-backend/internal/models"
	"roastme-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// RoastService is the public roast surface the handler needs
type RoastService interface {
	Submit(ctx context.Context, req services.SubmitRoastRequest, fingerprint string) (*models.PublicRoast, error)
	Leaderboard(ctx context.Context, fingerprint string, limit, offset int) ([]*models.PublicRoast, *models.Pagination, error)
	Trending(ctx context.Context, fingerprint string, limit int) ([]*models.PublicRoast, error)
	Vote(ctx context.Context, roastID, fingerprint string) (*services.VoteResult, error)
}

// RoastHandler handles public roast HTTP requests
type RoastHandler struct {
	roasts RoastService
}

// NewRoastHandler creates a new roast handler
func NewRoastHandler(roasts RoastService) *RoastHandler {
	return &RoastHandler{roasts: roasts}
}

// Submit handles POST /api/v1/roasts
func (h *RoastHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req services.SubmitRoastRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	roast, err := h.roasts.Submit(r.Context(), req, middleware.GetFingerprint(r.Context()))
	if err != nil {
		respondServiceError(w, err, "roast not found")
		return
	}
	respondJSON(w, roast, http.StatusCreated)
}

// Leaderboard handles GET /api/v1/roasts
func (h *RoastHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	roasts, page, err := h.roasts.Leaderboard(ctx, middleware.GetFingerprint(ctx), limit, offset)
	if err != nil {
		respondServiceError(w, err, "roast not found")
		return
	}
	respondJSON(w, map[string]interface{}{
		"roasts":     roasts,
		"pagination": page,
	}, http.StatusOK)
}

// Trending handles GET /api/v1/roasts/trending
func (h *RoastHandler) Trending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roasts, err := h.roasts.Trending(ctx, middleware.GetFingerprint(ctx), queryInt(r, "limit", 0))
	if err != nil {
		respondServiceError(w, err, "roast not found")
		return
	}
	respondJSON(w, map[string]interface{}{"roasts": roasts}, http.StatusOK)
}

type voteFailure struct {
	services.VoteResult
	Error string `json:"error"`
}

// Vote handles POST /api/v1/roasts/{id}/vote
func (h *RoastHandler) Vote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roastID := chi.URLParam(r, "id")

	result, err := h.roasts.Vote(ctx, roastID, middleware.GetFingerprint(ctx))
	if err != nil {
		var persistenceErr *services.PersistenceError
		if errors.As(err, &persistenceErr) && result != nil {
			respondJSON(w, voteFailure{
				VoteResult: *result,
				Error:      "vote not recorded, please retry",
			}, http.StatusInternalServerError)
			return
		}
		respondServiceError(w, err, "roast not found")
		return
	}
	respondJSON(w, result, http.StatusOK)
}
