package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const selectUserProvided = `SELECT key, value FROM ui_settings WHERE version = $1`

// SettingsRepo reads user-provided UI settings stored per release version.
type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

// GetUserProvided returns every stored setting for version. A version with
// no rows yields an empty, non-nil map.
func (r *SettingsRepo) GetUserProvided(ctx context.Context, version string) (map[string]any, error) {
	rows, err := r.pool.Query(ctx, selectUserProvided, version)
	if err != nil {
		return nil, fmt.Errorf("failed to query user-provided settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]any)
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan user-provided setting: %w", err)
		}

		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("failed to decode setting %q: %w", key, err)
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user-provided settings: %w", err)
	}

	return settings, nil
}

// Ping reports whether the pool can reach the database.
func (r *SettingsRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
