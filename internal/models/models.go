package models

import (
	"time"

	"github.com/goccy/go-json"
)

// StoryTTL is how long a story stays live after creation. It is fixed at
// creation and never extended.
const StoryTTL = 24 * time.Hour

// PublicRoast represents a published roast competing on the leaderboard
type PublicRoast struct {
	ID              string    `json:"id"`
	ImageURL        string    `json:"image_url"`
	RoastText       string    `json:"roast_text"`
	RoastStyle      string    `json:"roast_style"`
	Language        string    `json:"language"`
	Votes           int       `json:"votes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UserFingerprint string    `json:"-"`
	HasVoted        bool      `json:"has_voted"`
}

// RoastVote is one fingerprint's vote on one roast
type RoastVote struct {
	ID              int64     `json:"id"`
	RoastID         string    `json:"roast_id"`
	UserFingerprint string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// RoastStory represents an ephemeral 24h post
type RoastStory struct {
	ID              string    `json:"id"`
	ImageURL        string    `json:"image_url"`
	RoastText       string    `json:"roast_text"`
	RoastStyle      string    `json:"roast_style"`
	Language        string    `json:"language"`
	Username        *string   `json:"username,omitempty"`
	UserFingerprint string    `json:"-"`
	Views           int       `json:"views"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	ReactionCount   int       `json:"reaction_count"`
	UserReaction    *string   `json:"user_reaction,omitempty"`
	HasViewed       bool      `json:"has_viewed"`
}

// Live reports whether the story is visible at the given instant
func (s *RoastStory) Live(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}

// StoryView records that a fingerprint has seen a story
type StoryView struct {
	ID              int64     `json:"id"`
	StoryID         string    `json:"story_id"`
	UserFingerprint string    `json:"-"`
	ViewedAt        time.Time `json:"viewed_at"`
}

// StoryReaction is a fingerprint's current emoji on a story
type StoryReaction struct {
	ID              int64     `json:"id"`
	StoryID         string    `json:"story_id"`
	UserFingerprint string    `json:"-"`
	Emoji           string    `json:"emoji"`
	ReactedAt       time.Time `json:"reacted_at"`
}

// Pagination describes one leaderboard page. HasMore is true when the page
// came back full.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ContentKind selects the moderated table
type ContentKind string

const (
	ContentRoast ContentKind = "roast"
	ContentStory ContentKind = "story"
)

// ContentPage is one page of moderated rows
type ContentPage struct {
	Kind    ContentKind `json:"type"`
	Content interface{} `json:"content"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
	Total   int         `json:"total"`
}

// Setting is one platform_settings row
type Setting struct {
	ID          int64           `json:"id"`
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Group       string          `json:"group"`
	Description string          `json:"description"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AnalyticsEvent is one client-reported usage event. Timestamp is the
// client clock in Unix milliseconds.
type AnalyticsEvent struct {
	ID              int64           `json:"id"`
	Event           string          `json:"event"`
	Properties      json.RawMessage `json:"properties"`
	Timestamp       int64           `json:"timestamp"`
	UserFingerprint string          `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
}

// StyleCount is the number of active roasts per style
type StyleCount struct {
	RoastStyle string `json:"roast_style"`
	Count      int    `json:"count"`
}

// DayCount is the number of roasts created on a calendar day
type DayCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// Stats is the admin analytics overview
type Stats struct {
	TotalRoasts     int            `json:"total_roasts"`
	TotalVotes      int            `json:"total_votes"`
	TotalStories    int            `json:"total_stories"`
	TotalStoryViews int            `json:"total_story_views"`
	RoastsByStyle   []StyleCount   `json:"roasts_by_style"`
	TopRoasts       []*PublicRoast `json:"top_roasts"`
	RecentRoasts    []*PublicRoast `json:"recent_roasts"`
	RoastsPerDay    []DayCount     `json:"roasts_per_day"`
}
