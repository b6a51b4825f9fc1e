package graph

import (
	"reflect"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestCypherParams(t *testing.T) {
	bound := cypherParams(map[string]any{"id": "#1-1"}, "FIRE_001")
	if bound["code"] != "FIRE_001" || bound["id"] != "#1-1" {
		t.Fatalf("unexpected params: %#v", bound)
	}

	caller := map[string]any{"code": "EAR_001"}
	bound = cypherParams(caller, "FIRE_001")
	if bound["code"] != "EAR_001" {
		t.Fatalf("an explicit code param must win, got %v", bound["code"])
	}
	bound["extra"] = 1
	if _, ok := caller["extra"]; ok {
		t.Fatalf("cypherParams must not modify the caller's map")
	}

	if _, ok := cypherParams(nil, "")["code"]; ok {
		t.Fatalf("no code should be bound without a scenario")
	}
}

func TestRecordRow_FlattensGraphValues(t *testing.T) {
	scene := neo4j.Node{Labels: []string{"Scene"}, Props: map[string]any{"scene_id": "#1-1"}}
	next := neo4j.Node{Labels: []string{"Scene"}, Props: map[string]any{"scene_id": "#1-2"}}
	edge := neo4j.Relationship{Type: "LEADS_TO", Props: map[string]any{"answer_id": "A"}}
	record := &neo4j.Record{
		Keys:   []string{"s", "r", "p", "ids"},
		Values: []any{scene, edge, neo4j.Path{Nodes: []neo4j.Node{scene, next}, Relationships: []neo4j.Relationship{edge}}, []any{"#1-1", int64(2)}},
	}

	row := recordRow(record)

	wantScene := map[string]any{"labels": []string{"Scene"}, "props": map[string]any{"scene_id": "#1-1"}}
	if !reflect.DeepEqual(row["s"], wantScene) {
		t.Fatalf("unexpected node: %#v", row["s"])
	}
	wantEdge := map[string]any{"type": "LEADS_TO", "props": map[string]any{"answer_id": "A"}}
	if !reflect.DeepEqual(row["r"], wantEdge) {
		t.Fatalf("unexpected relationship: %#v", row["r"])
	}
	path, ok := row["p"].(map[string]any)
	if !ok || len(path["nodes"].([]any)) != 2 || len(path["relationships"].([]any)) != 1 {
		t.Fatalf("unexpected path: %#v", row["p"])
	}
	if !reflect.DeepEqual(row["ids"], []any{"#1-1", int64(2)}) {
		t.Fatalf("unexpected list: %#v", row["ids"])
	}
}
