package scenario

import (
	"reflect"
	"testing"
)

func TestParseSceneID(t *testing.T) {
	id, ok := ParseSceneID("#2-13")
	if !ok || id.Scenario != 2 || id.Scene != 13 {
		t.Fatalf("unexpected parse: %+v %v", id, ok)
	}
	if id.String() != "#2-13" {
		t.Fatalf("unexpected format %q", id.String())
	}
	for _, raw := range []string{"", "1-1", "#1", "#a-1", "#1-1 "} {
		if IsValidSceneID(raw) {
			t.Fatalf("expected %q to be invalid", raw)
		}
	}
}

func TestSortSceneIDs(t *testing.T) {
	ids := []string{"#2-1", "#1-10", "#1-2"}
	SortSceneIDs(ids)
	if !reflect.DeepEqual(ids, []string{"#1-2", "#1-10", "#2-1"}) {
		t.Fatalf("unexpected order: %v", ids)
	}
}

func TestNextAvailableSceneID(t *testing.T) {
	if got := NextAvailableSceneID(nil); got != "#1-1" {
		t.Fatalf("expected #1-1, got %s", got)
	}
	if got := NextAvailableSceneID([]string{"#1-1", "#1-4", "#2-9", "junk"}); got != "#1-5" {
		t.Fatalf("expected #1-5, got %s", got)
	}
}

func TestRecommendNextSceneIDs(t *testing.T) {
	existing := []string{"#1-1", "#1-2", "#2-3"}

	got := RecommendNextSceneIDs("#2-3", existing, 5)
	want := []string{"#2-4", "#3-1", "#2-1", "#2-2", "#1-1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected recommendations: %v", got)
	}

	if got := RecommendNextSceneIDs("bogus", existing, 5); got != nil {
		t.Fatalf("expected nil for invalid id, got %v", got)
	}
}
