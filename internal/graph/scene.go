package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"phoenix/internal/scenario"
)

// SyncScenario replaces the mirror of one scenario: a :Scenario node, one
// :Scene per scene and a :LEADS_TO edge per choice whose next id resolves.
// Choices carrying a control token are kept as a list on their scene.
func (c *Client) SyncScenario(ctx context.Context, code string, scenes []scenario.Scene) error {
	hash, err := HashScenes(scenes)
	if err != nil {
		return err
	}
	nodes, edges := sceneParams(code, scenes)

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		steps := []struct {
			query  string
			params map[string]any
		}{
			{`MERGE (sc:Scenario {code: $code})
SET sc.source_hash = $hash, sc.scene_count = $count, sc.last_synced = datetime()`,
				map[string]any{"code": code, "hash": hash, "count": len(scenes)}},
			{`MATCH (s:Scene {scenario_code: $code})
WHERE NOT s.scene_id IN $ids
DETACH DELETE s`,
				map[string]any{"code": code, "ids": sceneIDs(scenes)}},
			{`MATCH (:Scene {scenario_code: $code})-[r:LEADS_TO]->()
DELETE r`,
				map[string]any{"code": code}},
			{`MATCH (sc:Scenario {code: $code})
UNWIND $scenes AS row
MERGE (s:Scene {scenario_code: $code, scene_id: row.scene_id})
SET s.title = row.title,
    s.content = row.content,
    s.position = row.position,
    s.terminal = row.terminal,
    s.controls = row.controls
MERGE (sc)-[:HAS_SCENE]->(s)`,
				map[string]any{"code": code, "scenes": nodes}},
			{`UNWIND $edges AS row
MATCH (a:Scene {scenario_code: $code, scene_id: row.from})
MATCH (b:Scene {scenario_code: $code, scene_id: row.to})
CREATE (a)-[:LEADS_TO {answer_id: row.answer_id, correct: row.correct}]->(b)`,
				map[string]any{"code": code, "edges": edges}},
		}
		for _, step := range steps {
			if _, err := tx.Run(ctx, step.query, step.params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("syncing scenario %s: %w", code, err)
	}
	return nil
}

// HashScenes fingerprints scenes in their wire form.
func HashScenes(scenes []scenario.Scene) (string, error) {
	data, err := scenario.Encode(scenes)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func sceneIDs(scenes []scenario.Scene) []string {
	ids := make([]string, 0, len(scenes))
	for _, scene := range scenes {
		ids = append(ids, scene.ID)
	}
	return ids
}

func sceneParams(code string, scenes []scenario.Scene) ([]map[string]any, []map[string]any) {
	set := scenario.NewSet(scenes)
	nodes := make([]map[string]any, 0, len(scenes))
	var edges []map[string]any
	for i, scene := range scenes {
		controls := []string{}
		for _, option := range scene.Options {
			switch option.Next.Kind {
			case scenario.NextReview, scenario.NextExit:
				controls = append(controls, option.AnswerID+":"+option.Next.Kind.String())
			case scenario.NextScene:
				if _, ok := set.Resolve(option.Next); ok {
					edges = append(edges, map[string]any{
						"from":      scene.ID,
						"to":        option.Next.SceneID,
						"answer_id": option.AnswerID,
						"correct":   option.Correct(),
					})
				}
			}
		}
		nodes = append(nodes, map[string]any{
			"scene_id": scene.ID,
			"title":    scene.Title,
			"content":  scene.Content,
			"position": i,
			"terminal": set.IsTerminal(scene),
			"controls": controls,
		})
	}
	if edges == nil {
		edges = []map[string]any{}
	}
	return nodes, edges
}
