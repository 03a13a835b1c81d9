package services

import (
	"context"
	"time"

	"roastme-backend/internal/models"
)

// StatsService serves the admin analytics overview
type StatsService struct {
	store StatsStore
	auth  Authorizer
	now   func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(store StatsStore, auth Authorizer) *StatsService {
	return &StatsService{store: store, auth: auth, now: time.Now}
}

// Overview returns platform totals and recent activity
func (s *StatsService) Overview(ctx context.Context) (*models.Stats, error) {
	if err := s.auth.Authorize(ctx); err != nil {
		return nil, err
	}
	stats, err := s.store.Overview(ctx, s.now())
	if err != nil {
		return nil, storeError("get stats", err)
	}
	return stats, nil
}
