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

const storyUnavailable = "story unavailable"

// StoryService is the story surface the handler needs
type StoryService interface {
	Create(ctx context.Context, req services.CreateStoryRequest, fingerprint string) (*models.RoastStory, error)
	Active(ctx context.Context, fingerprint string) ([]*models.RoastStory, error)
	Get(ctx context.Context, id, fingerprint string) (*models.RoastStory, error)
	View(ctx context.Context, id, fingerprint string) (*services.ViewResult, error)
	React(ctx context.Context, id, fingerprint string, req services.ReactRequest) (*services.ReactResult, error)
}

// StoryHandler handles story HTTP requests
type StoryHandler struct {
	stories StoryService
}

// NewStoryHandler creates a new story handler
func NewStoryHandler(stories StoryService) *StoryHandler {
	return &StoryHandler{stories: stories}
}

// Create handles POST /api/v1/stories
func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateStoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	story, err := h.stories.Create(r.Context(), req, middleware.GetFingerprint(r.Context()))
	if err != nil {
		respondServiceError(w, err, storyUnavailable)
		return
	}
	respondJSON(w, story, http.StatusCreated)
}

// List handles GET /api/v1/stories
func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stories, err := h.stories.Active(ctx, middleware.GetFingerprint(ctx))
	if err != nil {
		respondServiceError(w, err, storyUnavailable)
		return
	}
	respondJSON(w, map[string]interface{}{"stories": stories}, http.StatusOK)
}

// Get handles GET /api/v1/stories/{id}
func (h *StoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	story, err := h.stories.Get(ctx, chi.URLParam(r, "id"), middleware.GetFingerprint(ctx))
	if err != nil {
		respondServiceError(w, err, storyUnavailable)
		return
	}
	respondJSON(w, story, http.StatusOK)
}

// View handles POST /api/v1/stories/{id}/view
func (h *StoryHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.stories.View(ctx, chi.URLParam(r, "id"), middleware.GetFingerprint(ctx))
	if err != nil {
		respondEngagementError(w, err, result != nil)
		return
	}
	respondJSON(w, result, http.StatusOK)
}

// React handles POST /api/v1/stories/{id}/react
func (h *StoryHandler) React(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.ReactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.stories.React(ctx, chi.URLParam(r, "id"), middleware.GetFingerprint(ctx), req)
	if err != nil {
		respondEngagementError(w, err, result != nil)
		return
	}
	respondJSON(w, result, http.StatusOK)
}

// respondEngagementError reports storage failures as success=false
func respondEngagementError(w http.ResponseWriter, err error, hasResult bool) {
	var persistenceErr *services.PersistenceError
	if hasResult && errors.As(err, &persistenceErr) {
		respondJSON(w, map[string]interface{}{
			"success": false,
			"error":   "not recorded, please retry",
		}, http.StatusInternalServerError)
		return
	}
	respondServiceError(w, err, storyUnavailable)
}
