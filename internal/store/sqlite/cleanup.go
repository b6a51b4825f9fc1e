package sqlite

import (
	"context"
	"fmt"
	"strings"
)

// RemoveStaleScenarios drops file-backed scenarios whose source file is no
// longer among currentSourceFiles.
func (c *Client) RemoveStaleScenarios(ctx context.Context, currentSourceFiles []string) (int64, error) {
	condition := "source_file IS NOT NULL AND source_file <> ''"
	args := make([]any, 0, len(currentSourceFiles))
	if len(currentSourceFiles) > 0 {
		placeholders := make([]string, len(currentSourceFiles))
		for i, f := range currentSourceFiles {
			placeholders[i] = "?"
			args = append(args, f)
		}
		condition += fmt.Sprintf(" AND source_file NOT IN (%s)", strings.Join(placeholders, ", "))
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM scenes WHERE scenario_code IN (SELECT code FROM scenarios WHERE %s)", condition),
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("removing stale scenes: %w", err)
	}

	result, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM scenarios WHERE %s", condition), args...)
	if err != nil {
		return 0, fmt.Errorf("removing stale scenarios: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing cleanup: %w", err)
	}
	return affected, nil
}

func (c *Client) GetScenarioHashes(ctx context.Context) (map[string]string, error) {
	query := `
	SELECT source_file, COALESCE(source_hash, '') FROM scenarios
	WHERE source_file IS NOT NULL
	  AND source_file <> ''
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query scenario hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var sourceFile, sourceHash string
		if err := rows.Scan(&sourceFile, &sourceHash); err != nil {
			return nil, fmt.Errorf("scanning scenario hash: %w", err)
		}
		hashes[sourceFile] = sourceHash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scenario hashes: %w", err)
	}

	return hashes, nil
}
