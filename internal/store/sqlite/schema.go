package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS scenarios (
		code          TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		source_file   TEXT,
		source_hash   TEXT,
		scene_count   INTEGER NOT NULL DEFAULT 0,
		option_count  INTEGER NOT NULL DEFAULT 0,
		scenes        TEXT NOT NULL DEFAULT '[]',
		last_ingested TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scenes (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		scenario_code TEXT NOT NULL,
		position      INTEGER NOT NULL,
		scene_id      TEXT NOT NULL,
		title         TEXT DEFAULT '',
		content       TEXT DEFAULT '',
		script        TEXT DEFAULT '',
		answers       TEXT DEFAULT '',
		CONSTRAINT uq_scene UNIQUE (scenario_code, position)
	);

	CREATE TABLE IF NOT EXISTS sessions (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scenarios_source_file ON scenarios (source_file);
	CREATE INDEX IF NOT EXISTS idx_scenes_code ON scenes (scenario_code);
	CREATE INDEX IF NOT EXISTS idx_scenes_scene_id ON scenes (scene_id);

	CREATE VIRTUAL TABLE IF NOT EXISTS scenes_fts USING fts5(
		title,
		content,
		script,
		answers,
		content=scenes,
		content_rowid=id
	);

	CREATE TRIGGER IF NOT EXISTS scenes_ai AFTER INSERT ON scenes BEGIN
		INSERT INTO scenes_fts(rowid, title, content, script, answers)
		VALUES (new.id, new.title, new.content, new.script, new.answers);
	END;

	CREATE TRIGGER IF NOT EXISTS scenes_ad AFTER DELETE ON scenes BEGIN
		INSERT INTO scenes_fts(scenes_fts, rowid, title, content, script, answers)
		VALUES ('delete', old.id, old.title, old.content, old.script, old.answers);
	END;

	CREATE TRIGGER IF NOT EXISTS scenes_au AFTER UPDATE ON scenes BEGIN
		INSERT INTO scenes_fts(scenes_fts, rowid, title, content, script, answers)
		VALUES ('delete', old.id, old.title, old.content, old.script, old.answers);
		INSERT INTO scenes_fts(rowid, title, content, script, answers)
		VALUES (new.id, new.title, new.content, new.script, new.answers);
	END;
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

// splitStatements breaks DDL on lines ending in ';'. A CREATE TRIGGER
// statement runs until its END; line.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasPrefix(strings.ToUpper(stripped), "CREATE TRIGGER") {
			inTrigger = true
		}
		if !strings.HasSuffix(stripped, ";") {
			continue
		}
		if inTrigger && !strings.EqualFold(stripped, "END;") {
			continue
		}
		inTrigger = false
		statements = append(statements, current.String())
		current.Reset()
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}

	return statements
}
