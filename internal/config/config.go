// Package config loads conceptgraph settings from defaults, an optional
// YAML file, a .env file and the process environment, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendNeo4j  = "neo4j"
)

// Config is the full configuration.
type Config struct {
	Backend string        `yaml:"backend"`
	SQLite  SQLiteConfig  `yaml:"sqlite"`
	Neo4j   Neo4jConfig   `yaml:"neo4j"`
	Export  ExportConfig  `yaml:"export"`
	Harvest HarvestConfig `yaml:"harvest"`
	Log     LogConfig     `yaml:"log"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type Neo4jConfig struct {
	URI            string `yaml:"uri"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Database       string `yaml:"database"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxPoolSize    int    `yaml:"max_pool_size"`
}

type ExportConfig struct {
	RecencyWindow int `yaml:"recency_window"`
}

type HarvestConfig struct {
	BaseURL        string `yaml:"base_url"`
	Concurrency    int    `yaml:"concurrency"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend: BackendSQLite,
		SQLite:  SQLiteConfig{Path: "conceptgraph.db"},
		Neo4j: Neo4jConfig{
			User:           "neo4j",
			TimeoutSeconds: 10,
			MaxPoolSize:    50,
		},
		Export: ExportConfig{RecencyWindow: 20},
		Harvest: HarvestConfig{
			BaseURL:        "http://dbpedia.org/page/",
			Concurrency:    4,
			TimeoutSeconds: 30,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds and validates a Config. path names an optional YAML file
// ("" skips it). envFiles are dotenv files to load before reading the
// environment; with none given, ./.env is tried. Missing dotenv files are
// ignored. Variables already set in the environment win over dotenv values.
func Load(path string, envFiles ...string) (Config, error) {
	cfg, err := Read(path, envFiles...)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Read is Load without validation, for callers that apply further
// overrides (command-line flags) before calling Validate.
func Read(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return Config{}, err
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Reject unknown fields so typos do not silently fall back to defaults
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	envString("CONCEPTGRAPH_BACKEND", &c.Backend)
	envString("CONCEPTGRAPH_SQLITE_PATH", &c.SQLite.Path)
	envString("CONCEPTGRAPH_LOG_LEVEL", &c.Log.Level)
	envString("NEO4J_URI", &c.Neo4j.URI)
	envString("NEO4J_USER", &c.Neo4j.User)
	envString("NEO4J_PASSWORD", &c.Neo4j.Password)
	envString("NEO4J_DATABASE", &c.Neo4j.Database)
	if err := envInt("NEO4J_TIMEOUT_SECONDS", &c.Neo4j.TimeoutSeconds); err != nil {
		return err
	}
	return envInt("NEO4J_MAX_POOL_SIZE", &c.Neo4j.MaxPoolSize)
}

// Validate checks value ranges and the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite.path is required for the sqlite backend")
		}
	case BackendNeo4j:
		if c.Neo4j.URI == "" {
			return errors.New("neo4j.uri is required for the neo4j backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendNeo4j)
	}
	if c.Neo4j.TimeoutSeconds <= 0 {
		return errors.New("neo4j.timeout_seconds must be positive")
	}
	if c.Neo4j.MaxPoolSize <= 0 {
		return errors.New("neo4j.max_pool_size must be positive")
	}
	if c.Export.RecencyWindow < 1 {
		return errors.New("export.recency_window must be at least 1")
	}
	if c.Harvest.Concurrency < 1 {
		return errors.New("harvest.concurrency must be at least 1")
	}
	if c.Harvest.TimeoutSeconds <= 0 {
		return errors.New("harvest.timeout_seconds must be positive")
	}
	return nil
}

// envString overwrites *dst with a non-empty environment value.
func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
