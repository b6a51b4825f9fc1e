package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"phoenix/internal/scenario"
	"phoenix/internal/store"
)

func (c *Client) UpsertScenario(ctx context.Context, in store.ScenarioInput) error {
	scenesJSON, err := scenario.Encode(in.Scenes)
	if err != nil {
		return fmt.Errorf("encoding scenes: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO scenarios (code, name, source_file, source_hash, scene_count, option_count, scenes, last_ingested)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (code) DO UPDATE SET
		name = excluded.name,
		source_file = excluded.source_file,
		source_hash = excluded.source_hash,
		scene_count = excluded.scene_count,
		option_count = excluded.option_count,
		scenes = excluded.scenes,
		last_ingested = excluded.last_ingested
	`
	_, err = tx.ExecContext(ctx, query,
		in.Code,
		in.Name,
		in.SourceFile,
		in.SourceHash,
		len(in.Scenes),
		store.CountOptions(in.Scenes),
		string(scenesJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting scenario: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM scenes WHERE scenario_code = ?", in.Code); err != nil {
		return fmt.Errorf("clearing scenes: %w", err)
	}
	for _, row := range store.SceneRows(in.Scenes) {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO scenes (scenario_code, position, scene_id, title, content, script, answers) VALUES (?, ?, ?, ?, ?, ?, ?)",
			in.Code, row.Position, row.SceneID, row.Title, row.Content, row.Script, row.Answers,
		)
		if err != nil {
			return fmt.Errorf("inserting scene %s: %w", row.SceneID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing scenario: %w", err)
	}
	return nil
}

func (c *Client) GetScenario(ctx context.Context, code string) (*store.Scenario, error) {
	query := `
	SELECT code, name, COALESCE(source_file, ''), COALESCE(source_hash, ''), scenes, last_ingested
	FROM scenarios
	WHERE code = ?
	`

	var sc store.Scenario
	var scenesJSON, ingested string
	err := c.db.QueryRowContext(ctx, query, code).Scan(
		&sc.Code, &sc.Name, &sc.SourceFile, &sc.SourceHash, &scenesJSON, &ingested,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scenario %s: %w", code, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting scenario: %w", err)
	}

	sc.Scenes, err = scenario.Decode([]byte(scenesJSON))
	if err != nil {
		return nil, fmt.Errorf("decoding scenes of %s: %w", code, err)
	}
	sc.LastIngested = parseTime(ingested)
	return &sc, nil
}

func (c *Client) ListScenarios(ctx context.Context) ([]store.ScenarioSummary, error) {
	query := `
	SELECT code, name, COALESCE(source_file, ''), scene_count, option_count, last_ingested
	FROM scenarios
	ORDER BY code ASC
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	defer rows.Close()

	results := []store.ScenarioSummary{}
	for rows.Next() {
		var s store.ScenarioSummary
		var ingested string
		if err := rows.Scan(&s.Code, &s.Name, &s.SourceFile, &s.SceneCount, &s.OptionCount, &ingested); err != nil {
			return nil, fmt.Errorf("scanning scenario summary: %w", err)
		}
		s.LastIngested = parseTime(ingested)
		results = append(results, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scenarios: %w", err)
	}

	return results, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
