package company

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists the singleton profile.
type Repository interface {
	Get(ctx context.Context) (Profile, error)
	Save(ctx context.Context, profile Profile) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository backed by PostgreSQL. The profile is a
// single jsonb row; defaults are returned until the first save.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Get(ctx context.Context) (Profile, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM company_profile WHERE id = 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultProfile(), nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("company: get profile: %w", err)
	}
	profile := DefaultProfile()
	if err := json.Unmarshal(raw, &profile); err != nil {
		return Profile{}, fmt.Errorf("company: decode profile: %w", err)
	}
	return profile, nil
}

func (r *pgRepository) Save(ctx context.Context, profile Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("company: encode profile: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO company_profile (id, data, updated_at) VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, raw)
	if err != nil {
		return fmt.Errorf("company: save profile: %w", err)
	}
	return nil
}
