package handlers

import (
	"context"
	"net/http"
	"time"

	"roastme-backend/internal/middleware"
	"roastme-backend/internal/models"
	"roastme-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// AdminAuth issues admin sessions
type AdminAuth interface {
	Login(req services.LoginRequest) (string, time.Time, error)
}

// Moderator is the moderation surface the handler needs
type Moderator interface {
	List(ctx context.Context, kind models.ContentKind, page, pageSize int) (*models.ContentPage, error)
	Delete(ctx context.Context, kind models.ContentKind, id string) error
	GetRoast(ctx context.Context, id string) (*models.PublicRoast, error)
}

// StatsProvider serves the analytics overview
type StatsProvider interface {
	Overview(ctx context.Context) (*models.Stats, error)
}

// AdminHandler handles admin console HTTP requests
type AdminHandler struct {
	auth       AdminAuth
	moderation Moderator
	stats      StatsProvider
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(auth AdminAuth, moderation Moderator, stats StatsProvider) *AdminHandler {
	return &AdminHandler{
		auth:       auth,
		moderation: moderation,
		stats:      stats,
	}
}

// Login handles POST /api/v1/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, expiresAt, err := h.auth.Login(req)
	if err != nil {
		respondServiceError(w, err, "not found")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, map[string]interface{}{
		"success":    true,
		"token":      token,
		"expires_at": expiresAt,
	}, http.StatusOK)
}

// Logout handles POST /api/v1/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

// ListContent handles GET /api/v1/admin/content
func (h *AdminHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	kind := models.ContentKind(r.URL.Query().Get("type"))
	if kind == "" {
		kind = models.ContentRoast
	}

	page, err := h.moderation.List(r.Context(), kind, queryInt(r, "page", 1), queryInt(r, "limit", 0))
	if err != nil {
		respondServiceError(w, err, "not found")
		return
	}
	respondJSON(w, page, http.StatusOK)
}

// DeleteContent handles DELETE /api/v1/admin/content/{kind}/{id}
func (h *AdminHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	kind := models.ContentKind(chi.URLParam(r, "kind"))
	id := chi.URLParam(r, "id")

	if err := h.moderation.Delete(r.Context(), kind, id); err != nil {
		respondServiceError(w, err, "content not found")
		return
	}
	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

// GetRoast handles GET /api/v1/admin/roasts/{id}
func (h *AdminHandler) GetRoast(w http.ResponseWriter, r *http.Request) {
	roast, err := h.moderation.GetRoast(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "roast not found")
		return
	}
	respondJSON(w, roast, http.StatusOK)
}

// Stats handles GET /api/v1/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Overview(r.Context())
	if err != nil {
		respondServiceError(w, err, "not found")
		return
	}
	respondJSON(w, stats, http.StatusOK)
}
