package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"phoenix/internal/config"
	"phoenix/internal/runs"
	"phoenix/internal/store"
)

// Catalog is the read side of the scenario store the tools use.
type Catalog interface {
	ListScenarios(ctx context.Context) ([]store.ScenarioSummary, error)
	GetScenario(ctx context.Context, code string) (*store.Scenario, error)
	SearchScenes(ctx context.Context, query, code string) ([]store.SearchResult, error)
}

type Server struct {
	rules   *config.Rules
	catalog Catalog
	runs    *runs.Manager
	mcp     *sdk.Server
}

func NewServer(rules *config.Rules, catalog Catalog, manager *runs.Manager, version string) *Server {
	if rules == nil {
		rules = config.DefaultRules()
	}
	s := &Server{
		rules:   rules,
		catalog: catalog,
		runs:    manager,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "phoenix",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
