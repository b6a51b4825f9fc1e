package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalConfig = "project: test\nversion: 1\nscenarios:\n  - code: FIRE_001\n    name: fire\n    path: fire.json\n"

func TestLoadProjectConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Project != "test-project" {
			t.Fatalf("expected project name, got %q", cfg.Project)
		}
		if len(cfg.Scenarios) != 2 {
			t.Fatalf("expected 2 scenarios, got %d", len(cfg.Scenarios))
		}
		if cfg.Session.Backend != BackendStore {
			t.Fatalf("expected store backend with a dsn, got %q", cfg.Session.Backend)
		}
		if cfg.LevelUpBonus() != 0 {
			t.Fatalf("expected explicit zero bonus to survive defaults, got %d", cfg.LevelUpBonus())
		}
		if got := cfg.ResolvePath("scenarios/fire.json"); got != filepath.Join("testdata", "scenarios", "fire.json") {
			t.Fatalf("unexpected resolved path %q", got)
		}
		if _, ok := cfg.Scenario("fire_001"); !ok {
			t.Fatalf("expected case-insensitive scenario lookup")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadProjectConfig(writeTempConfig(t, minimalConfig))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Session.Key != DefaultSessionKey || cfg.Session.Backend != BackendMemory {
			t.Fatalf("unexpected session defaults: %+v", cfg.Session)
		}
		if cfg.Player.BaseAward != 10 || cfg.LevelUpBonus() != 20 || cfg.Player.SelectPath != "/training" {
			t.Fatalf("unexpected player defaults: %+v", cfg.Player)
		}
		if cfg.Convert.BackupDir != filepath.Join("output", "backup") {
			t.Fatalf("unexpected backup dir %q", cfg.Convert.BackupDir)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PHOENIX_HTTP_ADDR", ":9999")
		t.Setenv("PHOENIX_PLAYER_TEXT_FALLBACK", "true")
		t.Setenv("PHOENIX_REDIS_ADDR", "localhost:6379")
		t.Setenv("PHOENIX_SESSION_BACKEND", "redis")
		cfg, err := LoadProjectConfig(writeTempConfig(t, minimalConfig))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.HTTP.Addr != ":9999" || !cfg.Player.TextFallback || cfg.Session.Backend != BackendRedis {
			t.Fatalf("environment not applied: %+v", cfg)
		}
	})

	t.Run("dotenv next to the project file", func(t *testing.T) {
		path := writeTempConfig(t, minimalConfig)
		envPath := filepath.Join(filepath.Dir(path), ".env")
		if err := os.WriteFile(envPath, []byte("PHOENIX_LOG_LEVEL=debug\n"), 0o600); err != nil {
			t.Fatalf("writing .env: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("PHOENIX_LOG_LEVEL") })

		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Log.Level != "debug" {
			t.Fatalf("expected level from .env, got %q", cfg.Log.Level)
		}
	})

	failures := []struct {
		name     string
		contents string
	}{
		{"missing project name", "version: 1\nscenarios:\n  - code: A\n    name: a\n    path: a.json\n"},
		{"bad version", "project: test\nversion: 2\nscenarios:\n  - code: A\n    name: a\n    path: a.json\n"},
		{"no scenarios", "project: test\nversion: 1\n"},
		{"lowercase code", "project: test\nversion: 1\nscenarios:\n  - code: fire\n    name: a\n    path: a.json\n"},
		{"path and url", "project: test\nversion: 1\nscenarios:\n  - code: A\n    name: a\n    path: a.json\n    url: http://x\n"},
		{"duplicate codes", "project: test\nversion: 1\nscenarios:\n  - code: A\n    name: a\n    path: a.json\n  - code: A\n    name: b\n    path: b.json\n"},
		{"unknown dsn scheme", minimalConfig + "storage:\n  dsn: mysql://localhost\n"},
		{"store backend without dsn", minimalConfig + "session:\n  backend: store\n"},
		{"redis backend without addr", minimalConfig + "session:\n  backend: redis\n"},
		{"unknown backend", minimalConfig + "session:\n  backend: disk\n"},
		{"invalid yaml", "project: [\n"},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadProjectConfig(writeTempConfig(t, tc.contents)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestTemplateLoads(t *testing.T) {
	data, err := Template("demo")
	if err != nil {
		t.Fatalf("rendering template: %v", err)
	}
	path := writeTempConfig(t, string(data))
	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	if cfg.Project != "demo" || cfg.Scenarios[0].Code != "FIRE_001" {
		t.Fatalf("unexpected template config: %+v", cfg)
	}
}

func TestStorageScheme(t *testing.T) {
	cases := map[string]string{
		"sqlite://phoenix.db":           "sqlite",
		"postgres://u:p@localhost/db":   "postgres",
		"postgresql://u:p@localhost/db": "postgres",
	}
	for dsn, want := range cases {
		got, err := StorageScheme(dsn)
		if err != nil || got != want {
			t.Fatalf("StorageScheme(%q) = %q, %v", dsn, got, err)
		}
	}
	if _, err := StorageScheme("file.db"); err == nil {
		t.Fatalf("expected error for bare path")
	}
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "phoenix.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
