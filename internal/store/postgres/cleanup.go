package postgres

import (
	"context"
	"fmt"
)

// RemoveStaleScenarios drops file-backed scenarios whose source file is no
// longer among currentSourceFiles. Their scenes go with them by cascade.
func (c *Client) RemoveStaleScenarios(ctx context.Context, currentSourceFiles []string) (int64, error) {
	if currentSourceFiles == nil {
		currentSourceFiles = []string{}
	}

	query := `
DELETE FROM scenarios
WHERE source_file IS NOT NULL
  AND source_file <> ''
  AND NOT (source_file = ANY($1))
`

	tag, err := c.pool.Exec(ctx, query, currentSourceFiles)
	if err != nil {
		return 0, fmt.Errorf("removing stale scenarios: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) GetScenarioHashes(ctx context.Context) (map[string]string, error) {
	query := `
SELECT source_file, COALESCE(source_hash, '') FROM scenarios
WHERE source_file IS NOT NULL
  AND source_file <> ''
`

	rows, err := c.pool.Query(ctx, query)
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
