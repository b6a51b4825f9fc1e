package store

import (
	"context"
	"errors"

	"phoenix/internal/session"
)

var ErrNotFound = errors.New("not found")

// Store is the scenario catalogue. It doubles as a session.KV so lifetime
// progress can live next to the scenarios.
type Store interface {
	session.KV

	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	UpsertScenario(ctx context.Context, in ScenarioInput) error
	GetScenario(ctx context.Context, code string) (*Scenario, error)
	ListScenarios(ctx context.Context) ([]ScenarioSummary, error)
	GetScenarioHashes(ctx context.Context) (map[string]string, error)
	RemoveStaleScenarios(ctx context.Context, currentSourceFiles []string) (int64, error)
	SearchScenes(ctx context.Context, query, code string) ([]SearchResult, error)

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
