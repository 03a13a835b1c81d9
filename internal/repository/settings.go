package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roastme-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// SettingsRepository reads and updates platform_settings
type SettingsRepository struct {
	db DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// All returns every setting ordered by group and key
func (r *SettingsRepository) All(ctx context.Context) ([]*models.Setting, error) {
	query := `
		SELECT id, key, value, "group", description, updated_at
		FROM platform_settings
		ORDER BY "group", key
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	defer rows.Close()

	settings := make([]*models.Setting, 0)
	for rows.Next() {
		var (
			setting models.Setting
			value   []byte
		)
		err := rows.Scan(&setting.ID, &setting.Key, &value, &setting.Group, &setting.Description, &setting.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		setting.Value = value
		settings = append(settings, &setting)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}

	return settings, nil
}

// Get returns the raw JSON value of one setting
func (r *SettingsRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRow(ctx, `SELECT value FROM platform_settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// Update replaces the value of an existing setting
func (r *SettingsRepository) Update(ctx context.Context, key string, value []byte, now time.Time) error {
	result, err := r.db.Exec(ctx,
		`UPDATE platform_settings SET value = $2::jsonb, updated_at = $3 WHERE key = $1`,
		key, string(value), now,
	)
	if err != nil {
		return fmt.Errorf("failed to update setting %s: %w", key, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
