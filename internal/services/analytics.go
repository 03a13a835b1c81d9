package services

import (
	"context"
	"strings"
	"time"

	"roastme-backend/internal/models"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	defaultAnalyticsLimit = 100
	maxAnalyticsLimit     = 1000
)

// AnalyticsService records client usage events and lists them for admins
type AnalyticsService struct {
	store AnalyticsStore
	auth  Authorizer
	now   func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(store AnalyticsStore, auth Authorizer) *AnalyticsService {
	return &AnalyticsService{store: store, auth: auth, now: time.Now}
}

// TrackEventRequest is one event reported by a client
type TrackEventRequest struct {
	Event      string          `json:"event" validate:"required,max=255"`
	Properties json.RawMessage `json:"properties"`
	Timestamp  int64           `json:"timestamp"`
}

// Track stores an event. Only a malformed request is an error: a storage
// failure is logged and swallowed so tracking never breaks the client.
func (s *AnalyticsService) Track(ctx context.Context, req TrackEventRequest, fingerprint string) error {
	req.Event = strings.TrimSpace(req.Event)
	if err := validateInput(req); err != nil {
		return err
	}

	properties := req.Properties
	if len(properties) == 0 || string(properties) == "null" {
		properties = json.RawMessage(`{}`)
	}
	if !json.Valid(properties) {
		return &ValidationError{Field: "properties", Message: "must be valid JSON"}
	}

	now := s.now()
	timestamp := req.Timestamp
	if timestamp <= 0 {
		timestamp = now.UnixMilli()
	}

	event := &models.AnalyticsEvent{
		Event:           req.Event,
		Properties:      properties,
		Timestamp:       timestamp,
		UserFingerprint: fingerprint,
		CreatedAt:       now,
	}
	if err := s.store.Record(ctx, event); err != nil {
		log.Warn().Err(err).Str("event", req.Event).Str("fingerprint", fingerprint).Msg("Analytics event dropped")
	}
	return nil
}

// List returns recent events, optionally only those named name
func (s *AnalyticsService) List(ctx context.Context, name string, limit int) ([]*models.AnalyticsEvent, error) {
	if err := s.auth.Authorize(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAnalyticsLimit
	}
	if limit > maxAnalyticsLimit {
		limit = maxAnalyticsLimit
	}

	events, err := s.store.List(ctx, strings.TrimSpace(name), limit)
	if err != nil {
		return nil, storeError("list analytics events", err)
	}
	return events, nil
}
