package services

import (
	"context"
	"time"

	"roastme-backend/internal/models"
)

// RoastStore persists public roasts and their vote rows
type RoastStore interface {
	Create(ctx context.Context, roast *models.PublicRoast) error
	GetByID(ctx context.Context, id string) (*models.PublicRoast, error)
	Leaderboard(ctx context.Context, fingerprint string, limit, offset int) ([]*models.PublicRoast, error)
	Trending(ctx context.Context, fingerprint string, since time.Time, limit int) ([]*models.PublicRoast, error)
	ToggleVote(ctx context.Context, roastID, fingerprint string, at time.Time) (votes int, voted bool, err error)
	ListAll(ctx context.Context, limit, offset int) ([]*models.PublicRoast, int, error)
	Deactivate(ctx context.Context, id string) error
}

// StoryStore persists stories and their view and reaction rows
type StoryStore interface {
	Create(ctx context.Context, story *models.RoastStory) error
	Active(ctx context.Context, fingerprint string, now time.Time) ([]*models.RoastStory, error)
	GetLive(ctx context.Context, id, fingerprint string, now time.Time) (*models.RoastStory, error)
	RecordView(ctx context.Context, id, fingerprint string, now time.Time) (views int, counted bool, err error)
	React(ctx context.Context, id, fingerprint, emoji string, now time.Time) error
	ReactionCount(ctx context.Context, id string) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context, limit, offset int) ([]*models.RoastStory, int, error)
}

// ExpiredStoryPurger is the part of StoryStore the sweeper needs
type ExpiredStoryPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SettingsStore reads and writes platform settings
type SettingsStore interface {
	All(ctx context.Context) ([]*models.Setting, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Update(ctx context.Context, key string, value []byte, now time.Time) error
}

// StatsStore computes the analytics overview
type StatsStore interface {
	Overview(ctx context.Context, now time.Time) (*models.Stats, error)
}

// Authorizer decides whether the caller in ctx may moderate
type Authorizer interface {
	Authorize(ctx context.Context) error
}

// AnalyticsStore persists client usage events
type AnalyticsStore interface {
	Record(ctx context.Context, event *models.AnalyticsEvent) error
	List(ctx context.Context, name string, limit int) ([]*models.AnalyticsEvent, error)
}
