package store

import (
	"context"
	"fmt"

	"phoenix/internal/scenario"
)

// ScenarioSource loads a scenario set from the catalogue.
type ScenarioSource struct {
	Store Store
	Code  string
}

var _ scenario.Source = ScenarioSource{}

func (s ScenarioSource) Load(ctx context.Context) (*scenario.Set, error) {
	sc, err := s.Store.GetScenario(ctx, s.Code)
	if err != nil {
		return nil, fmt.Errorf("loading scenario %s: %w: %w", s.Code, scenario.ErrUnavailable, err)
	}
	if len(sc.Scenes) == 0 {
		return nil, fmt.Errorf("loading scenario %s: %w: no scenes", s.Code, scenario.ErrUnavailable)
	}
	return scenario.NewSet(sc.Scenes), nil
}
