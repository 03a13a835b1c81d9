package handlers

import (
	"context"
	"net/http"

	"roastme-backend/internal/middleware"
	"roastme-backend/internal/models"
	"roastme-backend/internal/services"
)

// AnalyticsService is the event tracking surface the handler needs
type AnalyticsService interface {
	Track(ctx context.Context, req services.TrackEventRequest, fingerprint string) error
	List(ctx context.Context, name string, limit int) ([]*models.AnalyticsEvent, error)
}

// AnalyticsHandler handles usage event HTTP requests
type AnalyticsHandler struct {
	analytics AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Track handles POST /api/v1/analytics
func (h *AnalyticsHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req services.TrackEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.analytics.Track(r.Context(), req, middleware.GetFingerprint(r.Context())); err != nil {
		respondServiceError(w, err, "not found")
		return
	}
	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

// List handles GET /api/v1/admin/analytics
func (h *AnalyticsHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.analytics.List(r.Context(), r.URL.Query().Get("event"), queryInt(r, "limit", 0))
	if err != nil {
		respondServiceError(w, err, "not found")
		return
	}
	respondJSON(w, map[string]interface{}{
		"events": events,
		"count":  len(events),
	}, http.StatusOK)
}
