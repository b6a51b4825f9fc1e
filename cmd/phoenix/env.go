package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"phoenix/internal/config"
	"phoenix/internal/graph"
	"phoenix/internal/logger"
	"phoenix/internal/player"
	"phoenix/internal/runs"
	"phoenix/internal/scenario"
	"phoenix/internal/session"
	"phoenix/internal/store"
	"phoenix/internal/store/postgres"
	redisstore "phoenix/internal/store/redis"
	"phoenix/internal/store/sqlite"
)

var configPath string

func loadConfig() (*config.ProjectConfig, error) {
	return config.LoadProjectConfig(configPath)
}

func newLogger(cfg *config.ProjectConfig) (*zap.Logger, error) {
	return logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Encoding:   cfg.Log.Encoding,
		OutputPath: cfg.ResolvePath(cfg.Log.Output),
	})
}

func loadRules(cfg *config.ProjectConfig) (*config.Rules, error) {
	if cfg == nil || cfg.Rules == "" {
		return config.DefaultRules(), nil
	}
	return config.LoadRules(cfg.ResolvePath(cfg.Rules))
}

// openStore connects to the configured catalogue and makes sure its schema
// exists.
func openStore(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	if cfg.Storage.DSN == "" {
		return nil, fmt.Errorf("storage dsn is not configured")
	}
	scheme, err := config.StorageScheme(cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}

	var db store.Store
	switch scheme {
	case "sqlite":
		client, err := sqlite.New(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		db = client
	default:
		client, err := postgres.New(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		db = client
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}

func openGraph(ctx context.Context, cfg *config.ProjectConfig) (*graph.Client, error) {
	if cfg.Neo4j.URI == "" {
		return nil, fmt.Errorf("neo4j uri is not configured")
	}
	return graph.NewClient(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database)
}

// openSessions returns the KV lifetime progress is kept in. db may be nil
// unless the store backend is selected.
func openSessions(ctx context.Context, cfg *config.ProjectConfig, db store.Store, log *zap.Logger) (session.KV, func(), error) {
	switch cfg.Session.Backend {
	case config.BackendStore:
		if db == nil {
			return nil, nil, fmt.Errorf("session backend %q needs the store", config.BackendStore)
		}
		return db, func() {}, nil
	case config.BackendRedis:
		client, err := redisstore.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.NewKV(client, log, cfg.Redis.TTL), func() { client.Close() }, nil
	default:
		return session.NewMemoryKV(), func() {}, nil
	}
}

// scenarioLoader reads scenarios from the catalogue when there is one and
// from the configured files or URLs otherwise.
func scenarioLoader(cfg *config.ProjectConfig, db store.Store) runs.Loader {
	return runs.LoaderFunc(func(ctx context.Context, code string) (*scenario.Set, error) {
		return sourceFor(cfg, db, code).Load(ctx)
	})
}

func sourceFor(cfg *config.ProjectConfig, db store.Store, code string) scenario.Source {
	if db != nil {
		return store.ScenarioSource{Store: db, Code: code}
	}
	sc, ok := cfg.Scenario(code)
	if !ok {
		return missingSource(code)
	}
	if sc.URL != "" {
		return scenario.HTTPSource{URL: sc.URL}
	}
	return scenario.FileSource{Path: cfg.ResolvePath(sc.Path)}
}

type missingSource string

func (m missingSource) Load(ctx context.Context) (*scenario.Set, error) {
	return nil, fmt.Errorf("scenario %s is not configured: %w", string(m), scenario.ErrUnavailable)
}

func setNames(cfg *config.ProjectConfig) func(code string) string {
	return func(code string) string {
		if sc, ok := cfg.Scenario(code); ok {
			return sc.Name
		}
		return ""
	}
}

func playerOptions(cfg *config.ProjectConfig, observers ...player.Observer) []player.Option {
	opts := []player.Option{
		player.WithBaseAward(cfg.Player.BaseAward),
		player.WithLevelUpBonus(cfg.LevelUpBonus()),
		player.WithSelectPath(cfg.Player.SelectPath),
		player.WithTextFallback(cfg.Player.TextFallback),
	}
	if len(observers) > 0 {
		opts = append(opts, player.WithObserver(observers...))
	}
	return opts
}

// newManager wires a run manager for the network surfaces.
func newManager(cfg *config.ProjectConfig, db store.Store, kv session.KV, log *zap.Logger, observers ...player.Observer) *runs.Manager {
	return runs.NewManager(scenarioLoader(cfg, db), kv,
		runs.WithLogger(log),
		runs.WithSetNames(setNames(cfg)),
		runs.WithPlayerOptions(playerOptions(cfg, observers...)...),
	)
}
