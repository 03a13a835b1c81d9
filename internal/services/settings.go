package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"roastme-backend/internal/models"
	"roastme-backend/internal/repository"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Feature toggle keys in platform_settings
const (
	FeatureLeaderboard = "enable_leaderboard"
	FeatureStories     = "enable_stories"
	FeatureVoting      = "enable_voting"
)

// SettingsService reads platform settings per call. Nothing is cached, so
// an update is visible to the next request.
type SettingsService struct {
	store SettingsStore
	auth  Authorizer
	now   func() time.Time
}

// NewSettingsService creates a new settings service
func NewSettingsService(store SettingsStore, auth Authorizer) *SettingsService {
	return &SettingsService{
		store: store,
		auth:  auth,
		now:   time.Now,
	}
}

// FeatureEnabled reports whether a feature toggle is on. A missing key, an
// unreadable value or a storage failure all count as enabled.
func (s *SettingsService) FeatureEnabled(ctx context.Context, key string) bool {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("Failed to read feature toggle")
		}
		return true
	}

	var toggle struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.Unmarshal(raw, &toggle); err != nil || toggle.Enabled == nil {
		return true
	}
	return *toggle.Enabled
}

// RequireFeature returns ErrFeatureDisabled when the toggle is off
func (s *SettingsService) RequireFeature(ctx context.Context, key string) error {
	if !s.FeatureEnabled(ctx, key) {
		return ErrFeatureDisabled
	}
	return nil
}

// Public returns every setting as a key to value map
func (s *SettingsService) Public(ctx context.Context) (map[string]json.RawMessage, error) {
	settings, err := s.store.All(ctx)
	if err != nil {
		return nil, storeError("get settings", err)
	}

	values := make(map[string]json.RawMessage, len(settings))
	for _, setting := range settings {
		values[setting.Key] = setting.Value
	}
	return values, nil
}

// Grouped returns every setting grouped for the admin console
func (s *SettingsService) Grouped(ctx context.Context) (map[string][]*models.Setting, error) {
	if err := s.auth.Authorize(ctx); err != nil {
		return nil, err
	}

	settings, err := s.store.All(ctx)
	if err != nil {
		return nil, storeError("get settings", err)
	}

	grouped := make(map[string][]*models.Setting)
	for _, setting := range settings {
		grouped[setting.Group] = append(grouped[setting.Group], setting)
	}
	return grouped, nil
}

// UpdateSettingsRequest carries new values keyed by setting key
type UpdateSettingsRequest struct {
	Settings map[string]json.RawMessage `json:"settings"`
}

// Update replaces the value of each named setting. Keys must already exist.
func (s *SettingsService) Update(ctx context.Context, req UpdateSettingsRequest) error {
	if err := s.auth.Authorize(ctx); err != nil {
		return err
	}
	if len(req.Settings) == 0 {
		return &ValidationError{Field: "settings", Message: "is required"}
	}

	for key, value := range req.Settings {
		if strings.TrimSpace(key) == "" {
			return &ValidationError{Field: "settings", Message: "key is required"}
		}
		if !json.Valid(value) {
			return &ValidationError{Field: key, Message: "must be valid JSON"}
		}
	}

	now := s.now()
	for key, value := range req.Settings {
		if err := s.store.Update(ctx, key, value, now); err != nil {
			return storeError("update setting "+key, err)
		}
		log.Info().Str("key", key).Msg("Setting updated")
	}
	return nil
}
