package scenario

// Set is an ordered, read-only collection of scenes. References between
// scenes are resolved by id at lookup time, never precomputed, so terminal
// detection always reflects the full set.
type Set struct {
	scenes []Scene
}

func NewSet(scenes []Scene) *Set {
	copied := make([]Scene, len(scenes))
	copy(copied, scenes)
	return &Set{scenes: copied}
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.scenes)
}

func (s *Set) Scene(index int) (Scene, bool) {
	if s == nil || index < 0 || index >= len(s.scenes) {
		return Scene{}, false
	}
	return s.scenes[index], true
}

func (s *Set) Scenes() []Scene {
	if s == nil {
		return nil
	}
	out := make([]Scene, len(s.scenes))
	copy(out, s.scenes)
	return out
}

// FindSceneIndexByID is a linear scan; scenario sets are small.
func (s *Set) FindSceneIndexByID(id string) (int, bool) {
	if s == nil || id == "" {
		return -1, false
	}
	for i, scene := range s.scenes {
		if scene.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Resolve maps a forward edge onto a scene index. Control tokens and
// dangling ids do not resolve.
func (s *Set) Resolve(next Next) (int, bool) {
	if next.Kind != NextScene {
		return -1, false
	}
	return s.FindSceneIndexByID(next.SceneID)
}

func (s *Set) IsTerminalScene(index int) bool {
	scene, ok := s.Scene(index)
	if !ok {
		return false
	}
	return s.IsTerminal(scene)
}

// IsTerminal reports whether none of the scene's choices leads to another
// scene in the set. A scene without choices is not terminal.
func (s *Set) IsTerminal(scene Scene) bool {
	if len(scene.Options) == 0 {
		return false
	}

	ids := make(map[string]struct{}, s.Len())
	if s != nil {
		for _, item := range s.scenes {
			ids[item.ID] = struct{}{}
		}
	}

	for _, option := range scene.Options {
		if option.Next.Kind != NextScene {
			continue
		}
		if _, ok := ids[option.Next.SceneID]; ok {
			return false
		}
	}
	return true
}
