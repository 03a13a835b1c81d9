package services

import (
	"context"
	"strings"
	"time"

	"roastme-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StoryService handles story, view and reaction business logic
type StoryService struct {
	stories StoryStore
	events  Publisher
	now     func() time.Time
}

// NewStoryService creates a new story service
func NewStoryService(stories StoryStore, events Publisher) *StoryService {
	return &StoryService{
		stories: stories,
		events:  publisherOrNoop(events),
		now:     time.Now,
	}
}

// CreateStoryRequest is the input for posting a story
type CreateStoryRequest struct {
	ImageURL   string  `json:"image_url" validate:"required"`
	RoastText  string  `json:"roast_text" validate:"required"`
	RoastStyle string  `json:"roast_style" validate:"required,max=64"`
	Language   string  `json:"language" validate:"max=16"`
	Username   *string `json:"username" validate:"omitempty,max=64"`
}

func (r *CreateStoryRequest) normalize() {
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	r.RoastText = strings.TrimSpace(r.RoastText)
	r.RoastStyle = strings.TrimSpace(r.RoastStyle)
	r.Language = strings.TrimSpace(r.Language)
	if r.Language == "" {
		r.Language = defaultLanguage
	}
	if r.Username != nil {
		name := strings.TrimSpace(*r.Username)
		if name == "" {
			r.Username = nil
		} else {
			r.Username = &name
		}
	}
}

// ReactRequest is the input for reacting to a story
type ReactRequest struct {
	Emoji string `json:"emoji" validate:"required,max=32"`
}

// ViewResult is the outcome of viewing a story
type ViewResult struct {
	Success bool `json:"success"`
	Views   int  `json:"views"`
}

// ReactResult is the outcome of reacting to a story
type ReactResult struct {
	Success       bool   `json:"success"`
	Emoji         string `json:"emoji,omitempty"`
	ReactionCount int    `json:"reaction_count"`
}

// Create posts a story that expires exactly 24 hours after creation
func (s *StoryService) Create(ctx context.Context, req CreateStoryRequest, fingerprint string) (*models.RoastStory, error) {
	req.normalize()
	if err := validateInput(req); err != nil {
		return nil, err
	}

	now := s.now()
	story := &models.RoastStory{
		ID:              uuid.New().String(),
		ImageURL:        req.ImageURL,
		RoastText:       req.RoastText,
		RoastStyle:      req.RoastStyle,
		Language:        req.Language,
		Username:        req.Username,
		UserFingerprint: fingerprint,
		Views:           0,
		IsActive:        true,
		CreatedAt:       now,
		ExpiresAt:       now.Add(models.StoryTTL),
	}

	if err := s.stories.Create(ctx, story); err != nil {
		return nil, storeError("create story", err)
	}

	log.Info().
		Str("story_id", story.ID).
		Str("fingerprint", fingerprint).
		Time("expires_at", story.ExpiresAt).
		Msg("Story created")

	s.events.Publish(Event{Type: EventStoryCreated, Data: story})
	return story, nil
}

// Active returns live stories decorated for the calling fingerprint
func (s *StoryService) Active(ctx context.Context, fingerprint string) ([]*models.RoastStory, error) {
	stories, err := s.stories.Active(ctx, fingerprint, s.now())
	if err != nil {
		return nil, storeError("get stories", err)
	}
	return stories, nil
}

// Get returns a live story. Expired and removed stories are ErrNotFound.
func (s *StoryService) Get(ctx context.Context, id, fingerprint string) (*models.RoastStory, error) {
	story, err := s.stories.GetLive(ctx, id, fingerprint, s.now())
	if err != nil {
		return nil, storeError("get story", err)
	}
	return story, nil
}

// View records the fingerprint's first view of a live story. Repeat views
// succeed without counting again.
func (s *StoryService) View(ctx context.Context, id, fingerprint string) (*ViewResult, error) {
	views, counted, err := s.stories.RecordView(ctx, id, fingerprint, s.now())
	if err != nil {
		mapped := storeError("record view", err)
		if mapped == ErrNotFound {
			return nil, mapped
		}
		log.Error().Err(err).Str("story_id", id).Str("fingerprint", fingerprint).Msg("View not recorded")
		return &ViewResult{Success: false}, mapped
	}

	if counted {
		s.events.Publish(Event{
			Type: EventStoryViewed,
			Data: map[string]interface{}{
				"story_id": id,
				"views":    views,
			},
		})
	}

	return &ViewResult{Success: true, Views: views}, nil
}

// React sets the fingerprint's emoji on a live story, replacing any earlier one
func (s *StoryService) React(ctx context.Context, id, fingerprint string, req ReactRequest) (*ReactResult, error) {
	req.Emoji = strings.TrimSpace(req.Emoji)
	if err := validateInput(req); err != nil {
		return nil, err
	}

	if err := s.stories.React(ctx, id, fingerprint, req.Emoji, s.now()); err != nil {
		mapped := storeError("record reaction", err)
		if mapped == ErrNotFound {
			return nil, mapped
		}
		log.Error().Err(err).Str("story_id", id).Str("fingerprint", fingerprint).Msg("Reaction not recorded")
		return &ReactResult{Success: false}, mapped
	}

	result := &ReactResult{Success: true, Emoji: req.Emoji}
	count, err := s.stories.ReactionCount(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("story_id", id).Msg("Failed to count reactions")
	} else {
		result.ReactionCount = count
	}

	s.events.Publish(Event{
		Type: EventStoryReacted,
		Data: map[string]interface{}{
			"story_id":       id,
			"emoji":          req.Emoji,
			"reaction_count": result.ReactionCount,
		},
	})

	return result, nil
}
