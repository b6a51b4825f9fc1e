package postgres

import (
	"context"
	"fmt"
	"strings"

	"phoenix/internal/store"
)

func (c *Client) SearchScenes(ctx context.Context, query, code string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	sql := `
SELECT scenario_code, scene_id, title,
    ts_rank(search_vector, websearch_to_tsquery('simple', $1)) AS score,
    CASE WHEN content <> '' THEN
        ts_headline('simple', content, websearch_to_tsquery('simple', $1),
            'MaxFragments=2, MaxWords=30, MinWords=10, StartSel=**, StopSel=**')
    ELSE '' END AS snippet
FROM scenes
WHERE search_vector @@ websearch_to_tsquery('simple', $1)
  AND ($2 = '' OR scenario_code = $2)
ORDER BY score DESC, scenario_code ASC, position ASC
LIMIT 50
`

	rows, err := c.pool.Query(ctx, sql, query, code)
	if err != nil {
		return nil, fmt.Errorf("searching scenes: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		var score float32
		if err := rows.Scan(&r.ScenarioCode, &r.SceneID, &r.Title, &score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Score = float64(score)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	return results, nil
}
