package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsRefinery/internal/ports"
)

// SettingsRepository stores admin-managed provider credentials.
type SettingsRepository struct {
	db *sql.DB
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

// NewSettingsRepository wires a sql.DB implementation.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// APIKey returns the stored key for the provider, or empty when unset.
func (r *SettingsRepository) APIKey(ctx context.Context, provider string) (string, error) {
	query, args, err := builder.
		Select("api_key").
		From("settings").
		Where(sq.Eq{"provider": provider}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build select: %w", err)
	}

	var key string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query api key: %w", err)
	}

	return key, nil
}

// SaveAPIKey upserts the provider key.
func (r *SettingsRepository) SaveAPIKey(ctx context.Context, provider, key string) error {
	query, args, err := builder.
		Insert("settings").
		Columns("provider", "api_key", "updated_at").
		Values(provider, key, time.Now().UTC()).
		Suffix("ON CONFLICT (provider) DO UPDATE SET api_key = EXCLUDED.api_key, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save api key: %w", err)
	}

	return nil
}
