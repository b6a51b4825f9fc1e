//go:build integration

package graph

import (
	"context"
	"os"
	"reflect"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	uri := os.Getenv("PHOENIX_TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("PHOENIX_TEST_NEO4J_URI not set")
	}
	client, err := NewClient(ctx, uri, "neo4j", os.Getenv("PHOENIX_TEST_NEO4J_PASSWORD"), "neo4j")
	if err != nil {
		t.Fatalf("connecting to test neo4j: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(ctx) })
	return client
}

func TestNewClient_Connect(t *testing.T) {
	_ = testClient(t)
}

func TestNewClient_BadCredentials(t *testing.T) {
	ctx := context.Background()
	uri := os.Getenv("PHOENIX_TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("PHOENIX_TEST_NEO4J_URI not set")
	}
	client, err := NewClient(ctx, uri, "neo4j", "wrong", "neo4j")
	if err == nil {
		_ = client.Close(ctx)
		t.Fatalf("expected error")
	}
}

func TestEnsureIndexes(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	if err := client.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	if err := client.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes (idempotent): %v", err)
	}

	session := client.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: client.database})
	defer session.Close(ctx)

	indexNames, err := listIndexNames(ctx, session)
	if err != nil {
		t.Fatalf("list indexes: %v", err)
	}

	requiredIndexes := []string{"scene_fulltext", "scene_scenario_code"}
	for _, name := range requiredIndexes {
		if !contains(indexNames, name) {
			t.Fatalf("expected index %s", name)
		}
	}

	constraintNames, err := listConstraintNames(ctx, session)
	if err != nil {
		t.Fatalf("list constraints: %v", err)
	}
	for _, name := range []string{"scenario_unique_code", "scene_unique_id"} {
		if !contains(constraintNames, name) {
			t.Fatalf("expected constraint %s", name)
		}
	}
}

func TestSyncScenario(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)
	clearDatabase(t, client)

	scenes := testScenes()
	if err := client.SyncScenario(ctx, "FIRE_001", scenes); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := client.SyncScenario(ctx, "FIRE_001", scenes); err != nil {
		t.Fatalf("sync (idempotent): %v", err)
	}

	deadEnds, err := client.DeadEnds(ctx, "FIRE_001")
	if err != nil {
		t.Fatalf("dead ends: %v", err)
	}
	if !reflect.DeepEqual(deadEnds, []string{"#1-3", "#1-4"}) {
		t.Fatalf("unexpected dead ends: %v", deadEnds)
	}

	unreachable, err := client.Unreachable(ctx, "FIRE_001")
	if err != nil {
		t.Fatalf("unreachable: %v", err)
	}
	if !reflect.DeepEqual(unreachable, []string{"#1-4"}) {
		t.Fatalf("unexpected unreachable scenes: %v", unreachable)
	}

	edges, err := client.Successors(ctx, "FIRE_001", "#1-1")
	if err != nil {
		t.Fatalf("successors: %v", err)
	}
	if len(edges) != 2 || edges[0] != (Edge{AnswerID: "A", To: "#1-2", Correct: true}) {
		t.Fatalf("unexpected successors: %+v", edges)
	}

	hashes, err := client.ScenarioHashes(ctx)
	if err != nil {
		t.Fatalf("hashes: %v", err)
	}
	want, _ := HashScenes(scenes)
	if hashes["FIRE_001"] != want {
		t.Fatalf("expected hash %s, got %v", want, hashes)
	}

	if err := client.SyncScenario(ctx, "FIRE_001", scenes[:2]); err != nil {
		t.Fatalf("resync: %v", err)
	}
	deadEnds, err = client.DeadEnds(ctx, "FIRE_001")
	if err != nil {
		t.Fatalf("dead ends: %v", err)
	}
	if !reflect.DeepEqual(deadEnds, []string{"#1-2"}) {
		t.Fatalf("expected removed scenes to be gone, got %v", deadEnds)
	}
}

func TestRemoveStaleScenarios(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)
	clearDatabase(t, client)

	for _, code := range []string{"FIRE_001", "EAR_001"} {
		if err := client.SyncScenario(ctx, code, testScenes()); err != nil {
			t.Fatalf("sync %s: %v", code, err)
		}
	}

	deleted, err := client.RemoveStaleScenarios(ctx, []string{"FIRE_001"})
	if err != nil {
		t.Fatalf("remove stale: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	rows, err := client.RunCypher(ctx, "MATCH (s:Scene {scenario_code: $code}) RETURN count(s) AS n", nil, CypherOptions{Code: "EAR_001"})
	if err != nil {
		t.Fatalf("run cypher: %v", err)
	}
	if rows[0]["n"] != int64(0) {
		t.Fatalf("expected scenes of the stale scenario to be deleted, got %v", rows[0]["n"])
	}

	if _, err := client.RunCypher(ctx, "CREATE (:Scene {scenario_code: $code})", nil, CypherOptions{Code: "EAR_001"}); err == nil {
		t.Fatalf("expected a write in a read transaction to fail")
	}
	if _, err := client.RunCypher(ctx, "MATCH (s:Scene {scenario_code: $code}) DETACH DELETE s", nil, CypherOptions{Code: "EAR_001", Write: true}); err != nil {
		t.Fatalf("run write cypher: %v", err)
	}
}

func clearDatabase(t *testing.T, client *Client) {
	t.Helper()
	ctx := context.Background()
	session := client.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: client.database})
	defer session.Close(ctx)
	if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
		return nil, err
	}); err != nil {
		t.Fatalf("clear database: %v", err)
	}
}

func listIndexNames(ctx context.Context, session neo4j.SessionWithContext) ([]string, error) {
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "SHOW INDEXES YIELD name RETURN name", nil)
		if err != nil {
			return nil, err
		}
		var names []string
		for res.Next(ctx) {
			value, _ := res.Record().Get("name")
			if name, ok := value.(string); ok {
				names = append(names, name)
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func listConstraintNames(ctx context.Context, session neo4j.SessionWithContext) ([]string, error) {
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "SHOW CONSTRAINTS YIELD name RETURN name", nil)
		if err != nil {
			return nil, err
		}
		var names []string
		for res.Next(ctx) {
			value, _ := res.Record().Get("name")
			if name, ok := value.(string); ok {
				names = append(names, name)
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
