package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"phoenix/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Client)(nil)

const connectTimeout = 30 * time.Second

// Client keeps the catalogue, the scene search index and run sessions in
// one sqlite file.
type Client struct {
	db   *sql.DB
	path string
}

func New(ctx context.Context, dsn string) (*Client, error) {
	path, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	c := &Client{db: db, path: path}
	if err := c.prepare(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) inMemory() bool {
	return c.path == ":memory:"
}

func (c *Client) prepare(ctx context.Context) error {
	// Every connection to :memory: opens a separate database.
	if c.inMemory() {
		c.db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging sqlite %s: %w", c.path, err)
	}
	for _, pragma := range c.pragmas() {
		if _, err := c.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}
	return nil
}

// pragmas lists the connection settings. The HTTP server saves sessions
// while other requests read the catalogue, so file databases run in WAL mode.
func (c *Client) pragmas() []string {
	pragmas := []string{
		"PRAGMA busy_timeout = 30000",
		"PRAGMA synchronous = NORMAL",
	}
	if !c.inMemory() {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	return pragmas
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}
