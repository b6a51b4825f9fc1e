package ingest

import (
	"context"

	"phoenix/internal/scenario"
)

type GraphMirror interface {
	SyncScenario(ctx context.Context, code string, scenes []scenario.Scene) error
}
