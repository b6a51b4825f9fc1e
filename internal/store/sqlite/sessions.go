package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"phoenix/internal/session"
)

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := c.db.QueryRowContext(ctx, "SELECT value FROM sessions WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", key, err)
	}
	return []byte(value), nil
}

func (c *Client) Put(ctx context.Context, key string, value []byte) error {
	query := `
	INSERT INTO sessions (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := c.db.ExecContext(ctx, query, key, string(value), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("putting session %s: %w", key, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM sessions WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting session %s: %w", key, err)
	}
	return nil
}
