package handlers

import (
	"context"
	"net/http"

	"roastme-backend/internal/models"
	"roastme-backend/internal/services"

	"github.com/goccy/go-json"
)

// SettingsService is the settings surface the handler needs
type SettingsService interface {
	Public(ctx context.Context) (map[string]json.RawMessage, error)
	Grouped(ctx context.Context) (map[string][]*models.Setting, error)
	Update(ctx context.Context, req services.UpdateSettingsRequest) error
}

// SettingsHandler handles platform settings HTTP requests
type SettingsHandler struct {
	settings SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Public handles GET /api/v1/settings
func (h *SettingsHandler) Public(w http.ResponseWriter, r *http.Request) {
	values, err := h.settings.Public(r.Context())
	if err != nil {
		respondServiceError(w, err, "not found")
		return
	}
	respondJSON(w, map[string]interface{}{"settings": values}, http.StatusOK)
}

// List handles GET /api/v1/admin/settings
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.settings.Grouped(r.Context())
	if err != nil {
		respondServiceError(w, err, "not found")
		return
	}
	respondJSON(w, map[string]interface{}{"settings": grouped}, http.StatusOK)
}

// Update handles PUT /api/v1/admin/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.settings.Update(r.Context(), req); err != nil {
		respondServiceError(w, err, "setting not found")
		return
	}
	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}
