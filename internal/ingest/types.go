package ingest

import (
	"context"

	"go.uber.org/zap"

	"phoenix/internal/store"
)

// Store is the part of the catalogue ingest writes to.
type Store interface {
	EnsureSchema(ctx context.Context) error
	GetScenarioHashes(ctx context.Context) (map[string]string, error)
	UpsertScenario(ctx context.Context, in store.ScenarioInput) error
	RemoveStaleScenarios(ctx context.Context, currentSourceFiles []string) (int64, error)
}

type Result struct {
	ScenariosUpserted int
	ScenariosRemoved  int
	ScenariosMirrored int
	FilesSkipped      int
	Warnings          int
	Errors            []error
}

type Options struct {
	// Full re-ingests files whose hash did not change.
	Full bool
	// Dirs are walked for extra *.json scenario files beyond the configured
	// scenarios.
	Dirs    []string
	Exclude []string
	// Mirror, when set, receives every upserted scenario.
	Mirror GraphMirror
	Logger *zap.Logger
}
