package repository

import (
	"context"
	"fmt"
	"time"

	"roastme-backend/internal/models"
)

// StatsRepository computes the admin analytics overview
type StatsRepository struct {
	db DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Overview aggregates platform usage as of now
func (r *StatsRepository) Overview(ctx context.Context, now time.Time) (*models.Stats, error) {
	stats := &models.Stats{}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(votes), 0)
		FROM public_roasts
		WHERE is_active = TRUE
	`).Scan(&stats.TotalRoasts, &stats.TotalVotes)
	if err != nil {
		return nil, fmt.Errorf("failed to count roasts: %w", err)
	}

	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM roast_stories WHERE expires_at > $1`, now,
	).Scan(&stats.TotalStories)
	if err != nil {
		return nil, fmt.Errorf("failed to count stories: %w", err)
	}

	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM story_views`).Scan(&stats.TotalStoryViews)
	if err != nil {
		return nil, fmt.Errorf("failed to count story views: %w", err)
	}

	if stats.RoastsByStyle, err = r.roastsByStyle(ctx); err != nil {
		return nil, err
	}

	if stats.TopRoasts, err = r.roastList(ctx, `ORDER BY pr.votes DESC`); err != nil {
		return nil, err
	}

	if stats.RecentRoasts, err = r.roastList(ctx, `ORDER BY pr.created_at DESC`); err != nil {
		return nil, err
	}

	if stats.RoastsPerDay, err = r.roastsPerDay(ctx, now.Add(-7*24*time.Hour)); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *StatsRepository) roastsByStyle(ctx context.Context) ([]models.StyleCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT roast_style, COUNT(*) AS count
		FROM public_roasts
		WHERE is_active = TRUE
		GROUP BY roast_style
		ORDER BY count DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to group roasts by style: %w", err)
	}
	defer rows.Close()

	counts := make([]models.StyleCount, 0)
	for rows.Next() {
		var c models.StyleCount
		if err := rows.Scan(&c.RoastStyle, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan style count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// roastList returns ten active roasts in the given order
func (r *StatsRepository) roastList(ctx context.Context, orderBy string) ([]*models.PublicRoast, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+roastColumns+`
		FROM public_roasts pr
		WHERE pr.is_active = TRUE
		`+orderBy+`
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roasts: %w", err)
	}
	defer rows.Close()

	roasts := make([]*models.PublicRoast, 0)
	for rows.Next() {
		roast, err := scanRoast(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roast: %w", err)
		}
		roasts = append(roasts, roast)
	}
	return roasts, rows.Err()
}

func (r *StatsRepository) roastsPerDay(ctx context.Context, since time.Time) ([]models.DayCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DATE(created_at) AS date, COUNT(*) AS count
		FROM public_roasts
		WHERE created_at >= $1
		GROUP BY DATE(created_at)
		ORDER BY date DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count roasts per day: %w", err)
	}
	defer rows.Close()

	days := make([]models.DayCount, 0)
	for rows.Next() {
		var d models.DayCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("failed to scan day count: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
