package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Supported gallery storage backends.
const (
	BackendNPY      = "npy"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Matching MatchingConfig `yaml:"matching"`
	Log      LogConfig      `yaml:"log"`
}

type StoreConfig struct {
	Backend      string `yaml:"backend"`
	EncodingsDir string `yaml:"encodings_dir"` // one .npy file per identity
	BadgerDir    string `yaml:"badger_dir"`
}

type DatabaseConfig struct {
	URL          string `yaml:"-"` // PostgreSQL connection URL
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type EmbedderConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Dim            int    `yaml:"dim"` // expected embedding length, 0 disables the check
}

// MatchingConfig holds the distance thresholds used for recognition and
// for duplicate detection at enrollment.
type MatchingConfig struct {
	Tolerance          float64 `yaml:"tolerance"`
	DuplicateTolerance float64 `yaml:"duplicate_tolerance"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// envString returns the environment variable value or the fallback when unset or empty.
func envString(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a non-negative float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

// Defaults returns the configuration embedded in defaults.yaml.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

func Load() *Config {
	d := Defaults()

	return &Config{
		Store: StoreConfig{
			Backend:      strings.ToLower(envString("FACE_STORE_BACKEND", d.Store.Backend)),
			EncodingsDir: envString("FACE_ENCODINGS_DIR", d.Store.EncodingsDir),
			BadgerDir:    envString("FACE_BADGER_DIR", d.Store.BadgerDir),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", d.Database.MaxOpenConns),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", d.Database.MaxIdleConns),
		},
		Embedder: EmbedderConfig{
			URL:            envString("EMBEDDER_URL", d.Embedder.URL),
			TimeoutSeconds: envInt("EMBEDDER_TIMEOUT_SECONDS", d.Embedder.TimeoutSeconds),
			Dim:            envInt("EMBEDDER_DIM", d.Embedder.Dim),
		},
		Matching: MatchingConfig{
			Tolerance:          envFloat("FACE_TOLERANCE", d.Matching.Tolerance),
			DuplicateTolerance: envFloat("FACE_DUPLICATE_TOLERANCE", d.Matching.DuplicateTolerance),
		},
		Log: LogConfig{
			Level: strings.ToLower(envString("LOG_LEVEL", d.Log.Level)),
		},
	}
}

// Validate checks that the selected backend has what it needs to open.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendNPY:
		if c.Store.EncodingsDir == "" {
			return fmt.Errorf("FACE_ENCODINGS_DIR is required for the %s backend", BackendNPY)
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s backend", BackendPostgres)
		}
	case BackendBadger:
		if c.Store.BadgerDir == "" {
			return fmt.Errorf("FACE_BADGER_DIR is required for the %s backend", BackendBadger)
		}
	default:
		return fmt.Errorf("unknown store backend %q (want %s, %s or %s)",
			c.Store.Backend, BackendNPY, BackendPostgres, BackendBadger)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level, defaulting to info.
func (c *LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
