package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath       = "phoenix.yaml"
	EnvPrefix         = "PHOENIX"
	DefaultSessionKey = "phoenix_training_state"

	BackendStore  = "store"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

var scenarioCodePattern = regexp.MustCompile(`^[A-Z0-9_]+$`)

type ProjectConfig struct {
	Project   string           `yaml:"project" envconfig:"PROJECT"`
	Version   int              `yaml:"version" ignored:"true"`
	Scenarios []ScenarioConfig `yaml:"scenarios" ignored:"true"`
	Rules     string           `yaml:"rules,omitempty" envconfig:"RULES"`
	Storage   StorageConfig    `yaml:"storage" envconfig:"STORAGE"`
	Session   SessionConfig    `yaml:"session" envconfig:"SESSION"`
	Redis     RedisConfig      `yaml:"redis" envconfig:"REDIS"`
	Neo4j     Neo4jConfig      `yaml:"neo4j" envconfig:"NEO4J"`
	HTTP      HTTPConfig       `yaml:"http" envconfig:"HTTP"`
	Log       LogConfig        `yaml:"log" envconfig:"LOG"`
	Player    PlayerConfig     `yaml:"player" envconfig:"PLAYER"`
	Convert   ConvertConfig    `yaml:"convert" envconfig:"CONVERT"`

	dir string
}

// ScenarioConfig names one scenario set. Exactly one of Path and URL is set.
type ScenarioConfig struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
	Path string `yaml:"path,omitempty"`
	URL  string `yaml:"url,omitempty"`
}

type StorageConfig struct {
	DSN string `yaml:"dsn" envconfig:"DSN"`
}

type SessionConfig struct {
	Key     string `yaml:"key" envconfig:"KEY"`
	Backend string `yaml:"backend" envconfig:"BACKEND"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"ADDR"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	DB       int    `yaml:"db" envconfig:"DB"`
	// TTL expires idle session snapshots; zero keeps them.
	TTL time.Duration `yaml:"ttl,omitempty" envconfig:"TTL"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri" envconfig:"URI"`
	Username string `yaml:"username" envconfig:"USERNAME"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	Database string `yaml:"database" envconfig:"DATABASE"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

type LogConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Encoding string `yaml:"encoding" envconfig:"ENCODING"`
	Output   string `yaml:"output,omitempty" envconfig:"OUTPUT"`
}

type PlayerConfig struct {
	BaseAward    int    `yaml:"base_award" envconfig:"BASE_AWARD"`
	LevelUpBonus *int   `yaml:"level_up_bonus,omitempty" envconfig:"LEVEL_UP_BONUS"`
	SelectPath   string `yaml:"select_path" envconfig:"SELECT_PATH"`
	TextFallback bool   `yaml:"text_fallback" envconfig:"TEXT_FALLBACK"`
}

type ConvertConfig struct {
	TeamID    int    `yaml:"team_id" envconfig:"TEAM_ID"`
	CreatedBy int    `yaml:"created_by" envconfig:"CREATED_BY"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	BackupDir string `yaml:"backup_dir" envconfig:"BACKUP_DIR"`
}

// LoadProjectConfig reads the YAML project file, then applies PHOENIX_*
// environment overrides. A .env file next to the project file is loaded
// first; variables already set in the environment win over it.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	cfg.dir = filepath.Dir(path)

	if err := loadDotEnv(filepath.Join(cfg.dir, ".env")); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	cfg.applyDefaults()

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

func (c *ProjectConfig) applyDefaults() {
	if c.Session.Key == "" {
		c.Session.Key = DefaultSessionKey
	}
	if c.Session.Backend == "" {
		c.Session.Backend = BackendMemory
		if c.Storage.DSN != "" {
			c.Session.Backend = BackendStore
		}
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = "console"
	}
	if c.Player.BaseAward == 0 {
		c.Player.BaseAward = 10
	}
	if c.Player.LevelUpBonus == nil {
		bonus := 20
		c.Player.LevelUpBonus = &bonus
	}
	if c.Player.SelectPath == "" {
		c.Player.SelectPath = "/training"
	}
	if c.Convert.TeamID == 0 {
		c.Convert.TeamID = 1
	}
	if c.Convert.CreatedBy == 0 {
		c.Convert.CreatedBy = 1
	}
	if c.Convert.OutputDir == "" {
		c.Convert.OutputDir = "output"
	}
	if c.Convert.BackupDir == "" {
		c.Convert.BackupDir = filepath.Join(c.Convert.OutputDir, "backup")
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if len(cfg.Scenarios) == 0 {
		return fmt.Errorf("at least one scenario is required")
	}

	seen := make(map[string]struct{})
	for i, sc := range cfg.Scenarios {
		if strings.TrimSpace(sc.Code) == "" {
			return fmt.Errorf("scenario %d code is required", i)
		}
		if !scenarioCodePattern.MatchString(sc.Code) {
			return fmt.Errorf("scenario %d code %q must use A-Z, 0-9 and _", i, sc.Code)
		}
		if strings.TrimSpace(sc.Name) == "" {
			return fmt.Errorf("scenario %s name is required", sc.Code)
		}
		if (sc.Path == "") == (sc.URL == "") {
			return fmt.Errorf("scenario %s needs exactly one of path or url", sc.Code)
		}
		if _, exists := seen[sc.Code]; exists {
			return fmt.Errorf("duplicate scenario code: %s", sc.Code)
		}
		seen[sc.Code] = struct{}{}
	}

	if cfg.Storage.DSN != "" {
		if _, err := StorageScheme(cfg.Storage.DSN); err != nil {
			return err
		}
	}

	switch cfg.Session.Backend {
	case BackendMemory:
	case BackendStore:
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("session backend %q requires storage dsn", BackendStore)
		}
	case BackendRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return fmt.Errorf("session backend %q requires redis addr", BackendRedis)
		}
	default:
		return fmt.Errorf("unknown session backend: %s", cfg.Session.Backend)
	}

	if cfg.Player.BaseAward < 0 {
		return fmt.Errorf("player base_award must not be negative")
	}
	if cfg.Redis.TTL < 0 {
		return fmt.Errorf("redis ttl must not be negative")
	}
	if *cfg.Player.LevelUpBonus < 0 {
		return fmt.Errorf("player level_up_bonus must not be negative")
	}

	return nil
}

// StorageScheme returns "sqlite" or "postgres" for a storage DSN.
func StorageScheme(dsn string) (string, error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported storage dsn %q: want sqlite:// or postgres://", dsn)
	}
}

// ResolvePath interprets p relative to the directory of the project file.
func (c *ProjectConfig) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

func (c *ProjectConfig) Scenario(code string) (ScenarioConfig, bool) {
	for _, sc := range c.Scenarios {
		if strings.EqualFold(sc.Code, code) {
			return sc, true
		}
	}
	return ScenarioConfig{}, false
}

func (c *ProjectConfig) LevelUpBonus() int {
	if c.Player.LevelUpBonus == nil {
		return 20
	}
	return *c.Player.LevelUpBonus
}

// Template renders a starter project file.
func Template(project string) ([]byte, error) {
	bonus := 20
	cfg := ProjectConfig{
		Project: project,
		Version: 1,
		Scenarios: []ScenarioConfig{
			{Code: "FIRE_001", Name: "화재 대응", Path: "scenarios/fire.json"},
		},
		Storage: StorageConfig{DSN: "sqlite://phoenix.db"},
		Session: SessionConfig{Key: DefaultSessionKey, Backend: BackendStore},
		Neo4j:   Neo4jConfig{URI: "bolt://localhost:7687", Username: "neo4j", Password: "changeme", Database: "neo4j"},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Log:     LogConfig{Level: "info", Encoding: "console"},
		Player:  PlayerConfig{BaseAward: 10, LevelUpBonus: &bonus, SelectPath: "/training"},
		Convert: ConvertConfig{TeamID: 1, CreatedBy: 1, OutputDir: "output", BackupDir: "output/backup"},
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("rendering project template: %w", err)
	}
	return data, nil
}
