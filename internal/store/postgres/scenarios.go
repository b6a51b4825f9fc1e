package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"phoenix/internal/scenario"
	"phoenix/internal/store"
)

func (c *Client) UpsertScenario(ctx context.Context, in store.ScenarioInput) error {
	scenesJSON, err := scenario.Encode(in.Scenes)
	if err != nil {
		return fmt.Errorf("encoding scenes: %w", err)
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
INSERT INTO scenarios (code, name, source_file, source_hash, scene_count, option_count, scenes, last_ingested)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (code) DO UPDATE SET
    name = EXCLUDED.name,
    source_file = EXCLUDED.source_file,
    source_hash = EXCLUDED.source_hash,
    scene_count = EXCLUDED.scene_count,
    option_count = EXCLUDED.option_count,
    scenes = EXCLUDED.scenes,
    last_ingested = now()
`
	_, err = tx.Exec(ctx, query,
		in.Code,
		in.Name,
		in.SourceFile,
		in.SourceHash,
		len(in.Scenes),
		store.CountOptions(in.Scenes),
		scenesJSON,
	)
	if err != nil {
		return fmt.Errorf("upserting scenario: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM scenes WHERE scenario_code = $1", in.Code); err != nil {
		return fmt.Errorf("clearing scenes: %w", err)
	}

	batch := &pgx.Batch{}
	for _, row := range store.SceneRows(in.Scenes) {
		batch.Queue(`
INSERT INTO scenes (scenario_code, position, scene_id, title, content, script, answers, search_vector)
VALUES ($1, $2, $3, $4, $5, $6, $7,
    setweight(to_tsvector('simple', coalesce($4, '')), 'A') ||
    setweight(to_tsvector('simple', coalesce($5, '')), 'B') ||
    setweight(to_tsvector('simple', coalesce($7, '')), 'B') ||
    setweight(to_tsvector('simple', coalesce($6, '')), 'C')
)`, in.Code, row.Position, row.SceneID, row.Title, row.Content, row.Script, row.Answers)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting scenes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing scenario: %w", err)
	}
	return nil
}

func (c *Client) GetScenario(ctx context.Context, code string) (*store.Scenario, error) {
	query := `
SELECT code, name, COALESCE(source_file, ''), COALESCE(source_hash, ''), scenes, last_ingested
FROM scenarios
WHERE code = $1
`

	var sc store.Scenario
	var scenesJSON []byte
	err := c.pool.QueryRow(ctx, query, code).Scan(
		&sc.Code, &sc.Name, &sc.SourceFile, &sc.SourceHash, &scenesJSON, &sc.LastIngested,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("scenario %s: %w", code, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting scenario: %w", err)
	}

	sc.Scenes, err = scenario.Decode(scenesJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding scenes of %s: %w", code, err)
	}
	return &sc, nil
}

func (c *Client) ListScenarios(ctx context.Context) ([]store.ScenarioSummary, error) {
	query := `
SELECT code, name, COALESCE(source_file, ''), scene_count, option_count, last_ingested
FROM scenarios
ORDER BY code ASC
`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	defer rows.Close()

	results := []store.ScenarioSummary{}
	for rows.Next() {
		var s store.ScenarioSummary
		if err := rows.Scan(&s.Code, &s.Name, &s.SourceFile, &s.SceneCount, &s.OptionCount, &s.LastIngested); err != nil {
			return nil, fmt.Errorf("scanning scenario summary: %w", err)
		}
		results = append(results, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scenarios: %w", err)
	}

	return results, nil
}
