package services

import (
	"context"
	"strings"

	"roastme-backend/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ModerationService lists and removes content on behalf of an authorized admin
type ModerationService struct {
	auth    Authorizer
	roasts  RoastStore
	stories StoryStore
	events  Publisher
}

// NewModerationService creates a new moderation service
func NewModerationService(auth Authorizer, roasts RoastStore, stories StoryStore, events Publisher) *ModerationService {
	return &ModerationService{
		auth:    auth,
		roasts:  roasts,
		stories: stories,
		events:  publisherOrNoop(events),
	}
}

// ParseContentKind validates a content kind string
func ParseContentKind(raw string) (models.ContentKind, error) {
	switch kind := models.ContentKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case models.ContentRoast, models.ContentStory:
		return kind, nil
	default:
		return "", &ValidationError{Field: "type", Message: "must be one of roast story"}
	}
}

// List returns one page of roasts or stories newest first, including
// inactive and expired rows
func (s *ModerationService) List(ctx context.Context, kind models.ContentKind, page, pageSize int) (*models.ContentPage, error) {
	if err := s.auth.Authorize(ctx); err != nil {
		return nil, err
	}
	kind, err := ParseContentKind(string(kind))
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	offset := (page - 1) * pageSize

	result := &models.ContentPage{Kind: kind, Page: page, Limit: pageSize}
	switch kind {
	case models.ContentRoast:
		roasts, total, err := s.roasts.ListAll(ctx, pageSize, offset)
		if err != nil {
			return nil, storeError("list roasts", err)
		}
		result.Content, result.Total = roasts, total
	case models.ContentStory:
		stories, total, err := s.stories.ListAll(ctx, pageSize, offset)
		if err != nil {
			return nil, storeError("list stories", err)
		}
		result.Content, result.Total = stories, total
	}
	return result, nil
}

// Delete soft-deletes a roast or hard-deletes a story
func (s *ModerationService) Delete(ctx context.Context, kind models.ContentKind, id string) error {
	if err := s.auth.Authorize(ctx); err != nil {
		return err
	}
	kind, err := ParseContentKind(string(kind))
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}

	switch kind {
	case models.ContentRoast:
		err = s.roasts.Deactivate(ctx, id)
	case models.ContentStory:
		err = s.stories.Delete(ctx, id)
	}
	if err != nil {
		return storeError("delete "+string(kind), err)
	}

	admin, _ := AdminFromContext(ctx)
	log.Info().Str("kind", string(kind)).Str("id", id).Str("admin", admin).Msg("Content removed")

	s.events.Publish(Event{
		Type: EventContentRemoved,
		Data: map[string]interface{}{
			"kind": kind,
			"id":   id,
		},
	})
	return nil
}

// GetRoast returns a roast whatever its active flag
func (s *ModerationService) GetRoast(ctx context.Context, id string) (*models.PublicRoast, error) {
	if err := s.auth.Authorize(ctx); err != nil {
		return nil, err
	}
	roast, err := s.roasts.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get roast", err)
	}
	return roast, nil
}
