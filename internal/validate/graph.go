package validate

import (
	"context"
	"fmt"

	"phoenix/internal/scenario"
)

// DeadEndLister is the part of the graph mirror the validator consults.
type DeadEndLister interface {
	DeadEnds(ctx context.Context, code string) ([]string, error)
}

// CompareMirror warns about every scene whose dead-end status in the graph
// mirror differs from what the scenes themselves say.
func CompareMirror(ctx context.Context, report *Report, code string, scenes []scenario.Scene, mirror DeadEndLister) error {
	if mirror == nil {
		return fmt.Errorf("graph mirror is required")
	}
	remote, err := mirror.DeadEnds(ctx, code)
	if err != nil {
		return fmt.Errorf("list dead ends: %w", err)
	}

	remoteSet := make(map[string]struct{}, len(remote))
	for _, id := range remote {
		remoteSet[id] = struct{}{}
	}
	local := DeadEnds(scenes)
	localSet := make(map[string]struct{}, len(local))
	for _, id := range local {
		localSet[id] = struct{}{}
		if _, ok := remoteSet[id]; !ok {
			report.add(SeverityWarn, codeGraphOutOfSync, id, "", "scene %s is a dead end but the graph mirror has outgoing edges for it", id)
		}
	}
	for _, id := range remote {
		if _, ok := localSet[id]; !ok {
			report.add(SeverityWarn, codeGraphOutOfSync, id, "", "graph mirror lists scene %s as a dead end", id)
		}
	}
	return nil
}

// DeadEnds lists scenes with no choice leading to another scene in the list.
func DeadEnds(scenes []scenario.Scene) []string {
	set := scenario.NewSet(scenes)
	var out []string
	for _, scene := range scenes {
		leads := false
		for _, option := range scene.Options {
			if _, ok := set.Resolve(option.Next); ok {
				leads = true
				break
			}
		}
		if !leads {
			out = append(out, scene.ID)
		}
	}
	return out
}
