package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roastme-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const storyColumns = `rs.id, rs.image_url, rs.roast_text, rs.roast_style, rs.language,
	rs.username, rs.user_fingerprint, rs.views, rs.is_active, rs.created_at, rs.expires_at`

// engagement columns are computed for the fingerprint bound to $1
const storyEngagementColumns = `
	(SELECT COUNT(*) FROM story_reactions sr WHERE sr.story_id = rs.id) AS reaction_count,
	(SELECT sr.emoji FROM story_reactions sr WHERE sr.story_id = rs.id AND sr.user_fingerprint = $1) AS user_reaction,
	EXISTS (
		SELECT 1 FROM story_views sv
		WHERE sv.story_id = rs.id AND sv.user_fingerprint = $1
	) AS has_viewed`

// StoryRepository handles database operations for stories and their engagement
type StoryRepository struct {
	db DB
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(db DB) *StoryRepository {
	return &StoryRepository{db: db}
}

// Create inserts a new story
func (r *StoryRepository) Create(ctx context.Context, story *models.RoastStory) error {
	query := `
		INSERT INTO roast_stories (
			id, image_url, roast_text, roast_style, language,
			user_fingerprint, username, views, is_active, created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		story.ID, story.ImageURL, story.RoastText, story.RoastStyle, story.Language,
		story.UserFingerprint, story.Username, story.Views, story.IsActive, story.CreatedAt, story.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

// Active returns live stories newest first, decorated for the fingerprint
func (r *StoryRepository) Active(ctx context.Context, fingerprint string, now time.Time) ([]*models.RoastStory, error) {
	query := `
		SELECT ` + storyColumns + `,` + storyEngagementColumns + `
		FROM roast_stories rs
		WHERE rs.is_active = TRUE
			AND rs.expires_at > $2
		ORDER BY rs.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, fingerprint, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get stories: %w", err)
	}
	defer rows.Close()

	stories := make([]*models.RoastStory, 0)
	for rows.Next() {
		story, err := scanDecoratedStory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, story)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stories: %w", err)
	}

	return stories, nil
}

// GetLive retrieves a story only if it is active and unexpired. Expired,
// deactivated and missing stories all return ErrNotFound.
func (r *StoryRepository) GetLive(ctx context.Context, id, fingerprint string, now time.Time) (*models.RoastStory, error) {
	query := `
		SELECT ` + storyColumns + `,` + storyEngagementColumns + `
		FROM roast_stories rs
		WHERE rs.id = $2
			AND rs.is_active = TRUE
			AND rs.expires_at > $3
	`
	story, err := scanDecoratedStory(r.db.QueryRow(ctx, query, fingerprint, id, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return story, nil
}

// RecordView inserts the (story, fingerprint) view row if absent and bumps the
// counter only when a row was inserted. Returns the current view count and
// whether this call counted.
func (r *StoryRepository) RecordView(ctx context.Context, id, fingerprint string, now time.Time) (views int, counted bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin view: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`SELECT views FROM roast_stories WHERE id = $1 AND is_active = TRUE AND expires_at > $2`,
		id, now,
	).Scan(&views)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, ErrNotFound
		}
		return 0, false, fmt.Errorf("failed to get story: %w", err)
	}

	result, err := tx.Exec(ctx, `
		INSERT INTO story_views (story_id, user_fingerprint, viewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (story_id, user_fingerprint) DO NOTHING
	`, id, fingerprint, now)
	if err != nil {
		return 0, false, fmt.Errorf("failed to record view: %w", err)
	}

	if result.RowsAffected() > 0 {
		err = tx.QueryRow(ctx,
			`UPDATE roast_stories SET views = views + 1 WHERE id = $1 RETURNING views`,
			id,
		).Scan(&views)
		if err != nil {
			return 0, false, fmt.Errorf("failed to increment views: %w", err)
		}
		counted = true
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("failed to commit view: %w", err)
	}
	return views, counted, nil
}

// React upserts the fingerprint's reaction on a live story
func (r *StoryRepository) React(ctx context.Context, id, fingerprint, emoji string, now time.Time) error {
	result, err := r.db.Exec(ctx, `
		INSERT INTO story_reactions (story_id, user_fingerprint, emoji, reacted_at)
		SELECT rs.id, $2::text, $3::text, $4::timestamptz
		FROM roast_stories rs
		WHERE rs.id = $1 AND rs.is_active = TRUE AND rs.expires_at > $4
		ON CONFLICT (story_id, user_fingerprint)
		DO UPDATE SET emoji = EXCLUDED.emoji, reacted_at = EXCLUDED.reacted_at
	`, id, fingerprint, emoji, now)
	if err != nil {
		return fmt.Errorf("failed to react to story: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReactionCount returns the number of reactions on a story
func (r *StoryRepository) ReactionCount(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM story_reactions WHERE story_id = $1`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count reactions: %w", err)
	}
	return n, nil
}

// DeleteExpired hard-deletes every story whose expiry is before now,
// whatever its active flag. Views and reactions cascade.
func (r *StoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM roast_stories WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired stories: %w", err)
	}
	return result.RowsAffected(), nil
}

// Delete hard-deletes a story and its engagement rows
func (r *StoryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM roast_stories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAll returns every stored story newest first, expired or not
func (r *StoryRepository) ListAll(ctx context.Context, limit, offset int) ([]*models.RoastStory, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM roast_stories`).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count stories: %w", err)
	}

	query := `
		SELECT ` + storyColumns + `
		FROM roast_stories rs
		ORDER BY rs.created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	stories := make([]*models.RoastStory, 0)
	for rows.Next() {
		var story models.RoastStory
		err := rows.Scan(
			&story.ID, &story.ImageURL, &story.RoastText, &story.RoastStyle, &story.Language,
			&story.Username, &story.UserFingerprint, &story.Views, &story.IsActive,
			&story.CreatedAt, &story.ExpiresAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, &story)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating stories: %w", err)
	}

	return stories, total, nil
}

func scanDecoratedStory(row pgx.Row) (*models.RoastStory, error) {
	var story models.RoastStory
	err := row.Scan(
		&story.ID, &story.ImageURL, &story.RoastText, &story.RoastStyle, &story.Language,
		&story.Username, &story.UserFingerprint, &story.Views, &story.IsActive,
		&story.CreatedAt, &story.ExpiresAt,
		&story.ReactionCount, &story.UserReaction, &story.HasViewed,
	)
	if err != nil {
		return nil, err
	}
	return &story, nil
}
