package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps one jsonb row per collection.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates the collections table if needed.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			body JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create collections table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Read(ctx context.Context, name string) ([]json.RawMessage, error) {
	var body []byte
	err := p.pool.QueryRow(ctx, `SELECT body::text FROM collections WHERE name = $1`, name).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", name, err)
	}
	return decodeArray(name, body)
}

func (p *Postgres) Write(ctx context.Context, name string, records []json.RawMessage) error {
	body, err := encodeArray(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO collections (name, body, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()
	`, name, string(body))
	if err != nil {
		return fmt.Errorf("failed to write collection %s: %w", name, err)
	}
	return nil
}
