package repository

import (
	"context"
	"fmt"

	"roastme-backend/internal/models"
)

// AnalyticsRepository stores client usage events
type AnalyticsRepository struct {
	db DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Record inserts an event and sets its id
func (r *AnalyticsRepository) Record(ctx context.Context, event *models.AnalyticsEvent) error {
	query := `
		INSERT INTO analytics_events (event, properties, "timestamp", user_fingerprint, created_at)
		VALUES ($1, $2::jsonb, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		event.Event, string(event.Properties), event.Timestamp, event.UserFingerprint, event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to record analytics event: %w", err)
	}
	return nil
}

// List returns the most recent events by client timestamp. An empty name
// matches every event.
func (r *AnalyticsRepository) List(ctx context.Context, name string, limit int) ([]*models.AnalyticsEvent, error) {
	query := `
		SELECT id, event, properties, "timestamp", user_fingerprint, created_at
		FROM analytics_events
		WHERE $1 = '' OR event = $1
		ORDER BY "timestamp" DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.AnalyticsEvent, 0)
	for rows.Next() {
		var (
			event      models.AnalyticsEvent
			properties []byte
		)
		err := rows.Scan(&event.ID, &event.Event, &properties, &event.Timestamp, &event.UserFingerprint, &event.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analytics event: %w", err)
		}
		event.Properties = properties
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analytics events: %w", err)
	}

	return events, nil
}
