package scenario

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

var sceneIDPattern = regexp.MustCompile(`^#(\d+)-(\d+)$`)

// SceneID is the structured form of ids like "#1-3": scenario group 1,
// scene 3. The player treats ids as opaque; authoring tools use this form.
type SceneID struct {
	Scenario int
	Scene    int
}

func (id SceneID) String() string {
	return FormatSceneID(id.Scenario, id.Scene)
}

func ParseSceneID(raw string) (SceneID, bool) {
	match := sceneIDPattern.FindStringSubmatch(raw)
	if match == nil {
		return SceneID{}, false
	}
	scenarioNumber, err := strconv.Atoi(match[1])
	if err != nil {
		return SceneID{}, false
	}
	sceneNumber, err := strconv.Atoi(match[2])
	if err != nil {
		return SceneID{}, false
	}
	return SceneID{Scenario: scenarioNumber, Scene: sceneNumber}, true
}

func FormatSceneID(scenarioNumber, sceneNumber int) string {
	return fmt.Sprintf("#%d-%d", scenarioNumber, sceneNumber)
}

func IsValidSceneID(raw string) bool {
	_, ok := ParseSceneID(raw)
	return ok
}

// CompareSceneIDs orders by scenario then scene. Unparseable ids compare equal.
func CompareSceneIDs(a, b string) int {
	left, okA := ParseSceneID(a)
	right, okB := ParseSceneID(b)
	if !okA || !okB {
		return 0
	}
	if left.Scenario != right.Scenario {
		return left.Scenario - right.Scenario
	}
	return left.Scene - right.Scene
}

func SortSceneIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		return CompareSceneIDs(ids[i], ids[j]) < 0
	})
}

func maxScenes(existing []string) map[int]int {
	out := make(map[int]int)
	for _, raw := range existing {
		id, ok := ParseSceneID(raw)
		if !ok {
			continue
		}
		if id.Scene > out[id.Scenario] {
			out[id.Scenario] = id.Scene
		}
	}
	return out
}

// NextAvailableSceneID returns the next free scene id in the first scenario group.
func NextAvailableSceneID(existing []string) string {
	return FormatSceneID(1, maxScenes(existing)[1]+1)
}

// RecommendNextSceneIDs suggests targets for a new edge out of current, in
// priority order: the following scene, the next group's opening scene,
// unused earlier scenes, unused opening scenes of earlier groups, then the
// existing scenes.
func RecommendNextSceneIDs(current string, existing []string, limit int) []string {
	id, ok := ParseSceneID(current)
	if !ok {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	used := make(map[string]struct{}, len(existing))
	for _, raw := range existing {
		used[raw] = struct{}{}
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(candidate string) {
		if _, dup := seen[candidate]; dup {
			return
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	addUnused := func(candidate string) {
		if _, taken := used[candidate]; taken {
			return
		}
		add(candidate)
	}

	addUnused(FormatSceneID(id.Scenario, id.Scene+1))
	addUnused(FormatSceneID(id.Scenario+1, 1))
	for scene := 1; scene < id.Scene; scene++ {
		addUnused(FormatSceneID(id.Scenario, scene))
	}
	for group := 1; group < id.Scenario; group++ {
		addUnused(FormatSceneID(group, 1))
	}
	for _, raw := range existing {
		if raw == current {
			continue
		}
		add(raw)
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
