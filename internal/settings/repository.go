package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence for system settings.
type Repository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, setting Setting) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Get(ctx context.Context, key string) (*Setting, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT key, value, updated_by, updated_at FROM system_settings WHERE key = $1`, key)
	var s Setting
	if err := row.Scan(&s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("settings: get %s: %w", key, err)
	}
	return &s, nil
}

func (r *PGRepository) Set(ctx context.Context, setting Setting) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO system_settings (key, value, updated_by, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = NOW()`,
		setting.Key, setting.Value, setting.UpdatedBy)
	if err != nil {
		return fmt.Errorf("settings: set %s: %w", setting.Key, err)
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
