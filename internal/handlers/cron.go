package handlers

import (
	"context"
	"net/http"
)

// StorySweeper purges expired stories on demand
type StorySweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// CronHandler handles scheduled-job HTTP requests
type CronHandler struct {
	sweeper StorySweeper
}

// NewCronHandler creates a new cron handler
func NewCronHandler(sweeper StorySweeper) *CronHandler {
	return &CronHandler{sweeper: sweeper}
}

// Cleanup handles POST /api/v1/cron/cleanup
func (h *CronHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		respondServiceError(w, err, "not found")
		return
	}
	respondJSON(w, map[string]interface{}{
		"success": true,
		"deleted": deleted,
	}, http.StatusOK)
}
