package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema runs all DDL in one call, which postgres executes as a single
// implicit transaction.
func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS scenarios (
    code          TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    source_file   TEXT,
    source_hash   TEXT,
    scene_count   INTEGER NOT NULL DEFAULT 0,
    option_count  INTEGER NOT NULL DEFAULT 0,
    scenes        JSONB NOT NULL DEFAULT '[]',
    last_ingested TIMESTAMPTZ DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scenes (
    id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    scenario_code TEXT NOT NULL REFERENCES scenarios(code) ON DELETE CASCADE,
    position      INTEGER NOT NULL,
    scene_id      TEXT NOT NULL,
    title         TEXT DEFAULT '',
    content       TEXT DEFAULT '',
    script        TEXT DEFAULT '',
    answers       TEXT DEFAULT '',
    search_vector TSVECTOR,
    CONSTRAINT uq_scene UNIQUE (scenario_code, position)
);

CREATE TABLE IF NOT EXISTS sessions (
    key        TEXT PRIMARY KEY,
    value      JSONB NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scenarios_source_file ON scenarios (source_file);
ALTER TABLE scenes ADD COLUMN IF NOT EXISTS answers TEXT DEFAULT '';

CREATE INDEX IF NOT EXISTS idx_scenes_code ON scenes (scenario_code);
CREATE INDEX IF NOT EXISTS idx_scenes_scene_id ON scenes (scene_id);
CREATE INDEX IF NOT EXISTS idx_scenes_search ON scenes USING GIN (search_vector);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
