package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Edge struct {
	AnswerID string
	To       string
	Correct  bool
}

// DeadEnds lists the scenes of a scenario without an outgoing :LEADS_TO
// edge, in scene order.
func (c *Client) DeadEnds(ctx context.Context, code string) ([]string, error) {
	return c.sceneIDs(ctx, `MATCH (s:Scene {scenario_code: $code})
WHERE NOT (s)-[:LEADS_TO]->()
RETURN s.scene_id AS scene_id
ORDER BY s.position`, map[string]any{"code": code})
}

// Unreachable lists the scenes no path from the first scene reaches.
func (c *Client) Unreachable(ctx context.Context, code string) ([]string, error) {
	return c.sceneIDs(ctx, `MATCH (start:Scene {scenario_code: $code, position: 0})
MATCH (s:Scene {scenario_code: $code})
WHERE NOT EXISTS { MATCH (start)-[:LEADS_TO*0..]->(s) }
RETURN s.scene_id AS scene_id
ORDER BY s.position`, map[string]any{"code": code})
}

func (c *Client) Successors(ctx context.Context, code, sceneID string) ([]Edge, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (:Scene {scenario_code: $code, scene_id: $scene_id})-[r:LEADS_TO]->(b:Scene)
RETURN r.answer_id AS answer_id, b.scene_id AS to, r.correct AS correct
ORDER BY r.answer_id`, map[string]any{"code": code, "scene_id": sceneID})
		if err != nil {
			return nil, err
		}
		edges := make([]Edge, 0)
		for res.Next(ctx) {
			record := res.Record()
			answerID, _ := record.Get("answer_id")
			to, _ := record.Get("to")
			correct, _ := record.Get("correct")
			edge := Edge{AnswerID: toString(answerID), To: toString(to)}
			edge.Correct, _ = correct.(bool)
			edges = append(edges, edge)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return edges, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query successors of %s: %w", sceneID, err)
	}
	return result.([]Edge), nil
}

func (c *Client) sceneIDs(ctx context.Context, query string, params map[string]any) ([]string, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0)
		for res.Next(ctx) {
			value, _ := res.Record().Get("scene_id")
			if id := toString(value); id != "" {
				ids = append(ids, id)
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return ids, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query scenes: %w", err)
	}
	return result.([]string), nil
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}
