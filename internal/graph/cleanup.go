package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// RemoveStaleScenarios deletes mirrored scenarios, and their scenes, whose
// code is not in currentCodes.
func (c *Client) RemoveStaleScenarios(ctx context.Context, currentCodes []string) (int64, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	query := `
MATCH (sc:Scenario)
WHERE NOT sc.code IN $current_codes
OPTIONAL MATCH (sc)-[:HAS_SCENE]->(s:Scene)
DETACH DELETE s
WITH DISTINCT sc
DETACH DELETE sc
RETURN count(sc) AS deleted
`

	params := map[string]any{
		"current_codes": currentCodes,
	}

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			value, _ := res.Record().Get("deleted")
			if count, ok := value.(int64); ok {
				return count, nil
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return int64(0), nil
	})
	if err != nil {
		return 0, fmt.Errorf("removing stale scenarios: %w", err)
	}

	return result.(int64), nil
}
