package services

import (
	"context"
	"strings"
	"time"

	"roastme-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultLanguage         = "en"
	defaultLeaderboardLimit = 20
	defaultTrendingLimit    = 10
	trendingWindow          = 24 * time.Hour
)

// RoastService handles public roast and vote business logic
type RoastService struct {
	roasts RoastStore
	events Publisher
	now    func() time.Time
}

// NewRoastService creates a new roast service
func NewRoastService(roasts RoastStore, events Publisher) *RoastService {
	return &RoastService{
		roasts: roasts,
		events: publisherOrNoop(events),
		now:    time.Now,
	}
}

// SubmitRoastRequest is the input for publishing a roast
type SubmitRoastRequest struct {
	ImageURL   string `json:"image_url" validate:"required"`
	RoastText  string `json:"roast_text" validate:"required"`
	RoastStyle string `json:"roast_style" validate:"required,max=64"`
	Language   string `json:"language" validate:"max=16"`
}

func (r *SubmitRoastRequest) normalize() {
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	r.RoastText = strings.TrimSpace(r.RoastText)
	r.RoastStyle = strings.TrimSpace(r.RoastStyle)
	r.Language = strings.TrimSpace(r.Language)
	if r.Language == "" {
		r.Language = defaultLanguage
	}
}

// VoteResult is the outcome of a vote toggle. Votes is zero whenever
// Success is false.
type VoteResult struct {
	Success bool `json:"success"`
	Votes   int  `json:"votes"`
	Voted   bool `json:"voted"`
}

// Submit publishes a new roast with zero votes
func (s *RoastService) Submit(ctx context.Context, req SubmitRoastRequest, fingerprint string) (*models.PublicRoast, error) {
	req.normalize()
	if err := validateInput(req); err != nil {
		return nil, err
	}

	roast := &models.PublicRoast{
		ID:              uuid.New().String(),
		ImageURL:        req.ImageURL,
		RoastText:       req.RoastText,
		RoastStyle:      req.RoastStyle,
		Language:        req.Language,
		Votes:           0,
		IsActive:        true,
		CreatedAt:       s.now(),
		UserFingerprint: fingerprint,
	}

	if err := s.roasts.Create(ctx, roast); err != nil {
		return nil, storeError("create roast", err)
	}

	log.Info().
		Str("roast_id", roast.ID).
		Str("style", roast.RoastStyle).
		Str("fingerprint", fingerprint).
		Msg("Roast submitted")

	s.events.Publish(Event{Type: EventRoastSubmitted, Data: roast})
	return roast, nil
}

// Leaderboard returns active roasts ranked by votes and the page it covers
func (s *RoastService) Leaderboard(ctx context.Context, fingerprint string, limit, offset int) ([]*models.PublicRoast, *models.Pagination, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if offset < 0 {
		offset = 0
	}

	roasts, err := s.roasts.Leaderboard(ctx, fingerprint, limit, offset)
	if err != nil {
		return nil, nil, storeError("get leaderboard", err)
	}
	return roasts, &models.Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: len(roasts) == limit,
	}, nil
}

// Trending returns the leaderboard over the last 24 hours
func (s *RoastService) Trending(ctx context.Context, fingerprint string, limit int) ([]*models.PublicRoast, error) {
	if limit <= 0 {
		limit = defaultTrendingLimit
	}

	roasts, err := s.roasts.Trending(ctx, fingerprint, s.now().Add(-trendingWindow), limit)
	if err != nil {
		return nil, storeError("get trending roasts", err)
	}
	return roasts, nil
}

// Vote toggles the fingerprint's vote on a roast. On a storage failure the
// result reports Success=false and Votes=0 alongside a *PersistenceError.
func (s *RoastService) Vote(ctx context.Context, roastID, fingerprint string) (*VoteResult, error) {
	if strings.TrimSpace(roastID) == "" {
		return nil, &ValidationError{Field: "id", Message: "is required"}
	}

	votes, voted, err := s.roasts.ToggleVote(ctx, roastID, fingerprint, s.now())
	if err != nil {
		mapped := storeError("record vote", err)
		if mapped == ErrNotFound {
			return nil, mapped
		}
		log.Error().Err(err).Str("roast_id", roastID).Str("fingerprint", fingerprint).Msg("Vote not recorded")
		return &VoteResult{Success: false, Votes: 0}, mapped
	}

	log.Debug().
		Str("roast_id", roastID).
		Str("fingerprint", fingerprint).
		Bool("voted", voted).
		Int("votes", votes).
		Msg("Vote toggled")

	s.events.Publish(Event{
		Type: EventRoastVoted,
		Data: map[string]interface{}{
			"roast_id": roastID,
			"votes":    votes,
		},
	})

	return &VoteResult{Success: true, Votes: votes, Voted: voted}, nil
}
