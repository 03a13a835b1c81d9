package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roastme-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const roastColumns = `pr.id, pr.image_url, pr.roast_text, pr.roast_style, pr.language,
	pr.votes, pr.is_active, pr.created_at, pr.user_fingerprint`

// RoastRepository handles database operations for public roasts and votes
type RoastRepository struct {
	db DB
}

// NewRoastRepository creates a new roast repository
func NewRoastRepository(db DB) *RoastRepository {
	return &RoastRepository{db: db}
}

// Create inserts a new public roast
func (r *RoastRepository) Create(ctx context.Context, roast *models.PublicRoast) error {
	query := `
		INSERT INTO public_roasts (id, image_url, roast_text, roast_style, language, votes, is_active, created_at, user_fingerprint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		roast.ID, roast.ImageURL, roast.RoastText, roast.RoastStyle, roast.Language,
		roast.Votes, roast.IsActive, roast.CreatedAt, roast.UserFingerprint,
	)
	if err != nil {
		return fmt.Errorf("failed to create roast: %w", err)
	}
	return nil
}

// GetByID retrieves a roast regardless of its active flag
func (r *RoastRepository) GetByID(ctx context.Context, id string) (*models.PublicRoast, error) {
	query := `SELECT ` + roastColumns + ` FROM public_roasts pr WHERE pr.id = $1`
	roast, err := scanRoast(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get roast: %w", err)
	}
	return roast, nil
}

// Leaderboard returns active roasts ranked by votes, newest first on ties.
// HasVoted reflects the given fingerprint only.
func (r *RoastRepository) Leaderboard(ctx context.Context, fingerprint string, limit, offset int) ([]*models.PublicRoast, error) {
	query := `
		SELECT ` + roastColumns + `,
			EXISTS (
				SELECT 1 FROM roast_votes rv
				WHERE rv.roast_id = pr.id AND rv.user_fingerprint = $1
			) AS has_voted
		FROM public_roasts pr
		WHERE pr.is_active = TRUE
		ORDER BY pr.votes DESC, pr.created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryRanked(ctx, query, fingerprint, limit, offset)
}

// Trending is the leaderboard restricted to roasts created after since
func (r *RoastRepository) Trending(ctx context.Context, fingerprint string, since time.Time, limit int) ([]*models.PublicRoast, error) {
	query := `
		SELECT ` + roastColumns + `,
			EXISTS (
				SELECT 1 FROM roast_votes rv
				WHERE rv.roast_id = pr.id AND rv.user_fingerprint = $1
			) AS has_voted
		FROM public_roasts pr
		WHERE pr.is_active = TRUE
			AND pr.created_at > $2
		ORDER BY pr.votes DESC, pr.created_at DESC
		LIMIT $3
	`
	return r.queryRanked(ctx, query, fingerprint, since, limit)
}

func (r *RoastRepository) queryRanked(ctx context.Context, query string, args ...any) ([]*models.PublicRoast, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get roasts: %w", err)
	}
	defer rows.Close()

	roasts := make([]*models.PublicRoast, 0)
	for rows.Next() {
		var roast models.PublicRoast
		err := rows.Scan(
			&roast.ID, &roast.ImageURL, &roast.RoastText, &roast.RoastStyle, &roast.Language,
			&roast.Votes, &roast.IsActive, &roast.CreatedAt, &roast.UserFingerprint,
			&roast.HasVoted,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roast: %w", err)
		}
		roasts = append(roasts, &roast)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roasts: %w", err)
	}

	return roasts, nil
}

// ToggleVote removes the fingerprint's vote if present, otherwise adds one,
// and applies the matching delta to the counter in the same transaction.
// The roast row is locked for the duration so toggles on one roast serialize.
func (r *RoastRepository) ToggleVote(ctx context.Context, roastID, fingerprint string, at time.Time) (votes int, voted bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin vote: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var active bool
	err = tx.QueryRow(ctx, `SELECT is_active FROM public_roasts WHERE id = $1 FOR UPDATE`, roastID).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, ErrNotFound
		}
		return 0, false, fmt.Errorf("failed to lock roast: %w", err)
	}
	if !active {
		return 0, false, ErrNotFound
	}

	result, err := tx.Exec(ctx,
		`DELETE FROM roast_votes WHERE roast_id = $1 AND user_fingerprint = $2`,
		roastID, fingerprint,
	)
	if err != nil {
		return 0, false, fmt.Errorf("failed to remove vote: %w", err)
	}

	if result.RowsAffected() > 0 {
		err = tx.QueryRow(ctx,
			`UPDATE public_roasts SET votes = GREATEST(votes - 1, 0) WHERE id = $1 RETURNING votes`,
			roastID,
		).Scan(&votes)
		if err != nil {
			return 0, false, fmt.Errorf("failed to decrement votes: %w", err)
		}
	} else {
		_, err = tx.Exec(ctx,
			`INSERT INTO roast_votes (roast_id, user_fingerprint, created_at) VALUES ($1, $2, $3)`,
			roastID, fingerprint, at,
		)
		if err != nil {
			return 0, false, fmt.Errorf("failed to add vote: %w", err)
		}
		err = tx.QueryRow(ctx,
			`UPDATE public_roasts SET votes = votes + 1 WHERE id = $1 RETURNING votes`,
			roastID,
		).Scan(&votes)
		if err != nil {
			return 0, false, fmt.Errorf("failed to increment votes: %w", err)
		}
		voted = true
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("failed to commit vote: %w", err)
	}
	return votes, voted, nil
}

// CountVotes returns the number of vote rows for a roast
func (r *RoastRepository) CountVotes(ctx context.Context, roastID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM roast_votes WHERE roast_id = $1`, roastID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}

// ListAll returns every roast newest first, including inactive ones
func (r *RoastRepository) ListAll(ctx context.Context, limit, offset int) ([]*models.PublicRoast, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM public_roasts`).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count roasts: %w", err)
	}

	query := `
		SELECT ` + roastColumns + `
		FROM public_roasts pr
		ORDER BY pr.created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list roasts: %w", err)
	}
	defer rows.Close()

	roasts := make([]*models.PublicRoast, 0)
	for rows.Next() {
		roast, err := scanRoast(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan roast: %w", err)
		}
		roasts = append(roasts, roast)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating roasts: %w", err)
	}

	return roasts, total, nil
}

// Deactivate soft-deletes a roast. Vote rows are kept.
func (r *RoastRepository) Deactivate(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `UPDATE public_roasts SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate roast: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRoast(row pgx.Row) (*models.PublicRoast, error) {
	var roast models.PublicRoast
	err := row.Scan(
		&roast.ID, &roast.ImageURL, &roast.RoastText, &roast.RoastStyle, &roast.Language,
		&roast.Votes, &roast.IsActive, &roast.CreatedAt, &roast.UserFingerprint,
	)
	if err != nil {
		return nil, err
	}
	return &roast, nil
}
