package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ScenarioHashes maps each mirrored scenario code to the hash it was synced
// with.
func (c *Client) ScenarioHashes(ctx context.Context) (map[string]string, error) {
	if c == nil {
		return nil, fmt.Errorf("graph client is nil")
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (sc:Scenario)
RETURN sc.code AS code, sc.source_hash AS source_hash`, nil)
		if err != nil {
			return nil, err
		}
		values := make(map[string]string)
		for res.Next(ctx) {
			record := res.Record()
			codeValue, _ := record.Get("code")
			code, ok := codeValue.(string)
			if !ok || code == "" {
				continue
			}
			hashValue, _ := record.Get("source_hash")
			hash, _ := hashValue.(string)
			values[code] = hash
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return values, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query scenario hashes: %w", err)
	}

	return result.(map[string]string), nil
}
