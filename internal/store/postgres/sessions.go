package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"phoenix/internal/session"
)

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.pool.QueryRow(ctx, "SELECT value FROM sessions WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", key, err)
	}
	return value, nil
}

// Put stores value as JSONB; a value that is not valid JSON is rejected by
// postgres.
func (c *Client) Put(ctx context.Context, key string, value []byte) error {
	query := `
INSERT INTO sessions (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`
	if _, err := c.pool.Exec(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("putting session %s: %w", key, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if _, err := c.pool.Exec(ctx, "DELETE FROM sessions WHERE key = $1", key); err != nil {
		return fmt.Errorf("deleting session %s: %w", key, err)
	}
	return nil
}
