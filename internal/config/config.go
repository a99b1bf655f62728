package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `json:"database" envPrefix:"SQLPILOT_"`
	State    StateConfig    `json:"state"    envPrefix:"SQLPILOT_"`
	Generate GenerateConfig `json:"generate" envPrefix:"SQLPILOT_"`
	Logging  LoggingConfig  `json:"logging"  envPrefix:"SQLPILOT_"`
}

// DatabaseConfig selects the backing database the assistant introspects
// and executes against.
type DatabaseConfig struct {
	Driver string `json:"driver" env:"DB_DRIVER" envDefault:"sqlite3"` // sqlite3, duckdb
	DSN    string `json:"dsn"    env:"DB_DSN"    envDefault:":memory:"`
}

// StateConfig holds the file-resident learned state: the feedback log
// (write-ahead log) and the compacted corpus/synonym/pattern snapshots.
type StateConfig struct {
	Dir            string `json:"dir"             env:"STATE_DIR"       envDefault:"~/.config/sqlpilot"`
	FeedbackLog    string `json:"feedback_log"    env:"FEEDBACK_LOG"    envDefault:"feedback.jsonl"`
	UserCorpus     string `json:"user_corpus"     env:"USER_CORPUS"     envDefault:"user_corpus.jsonl"`
	Synonyms       string `json:"synonyms"        env:"SYNONYMS"        envDefault:"synonyms.json"`
	Patterns       string `json:"patterns"        env:"PATTERNS"        envDefault:"patterns.jsonl"`
	Checkpoint     string `json:"checkpoint"      env:"CHECKPOINT"      envDefault:"ingest.offset"`
	MaxPatternsUse int    `json:"max_patterns"    env:"MAX_PATTERNS"    envDefault:"50"`
}

// GenerateConfig tunes candidate generation and ranking.
type GenerateConfig struct {
	RowLimit       int    `json:"row_limit"        env:"ROW_LIMIT"        envDefault:"200"`
	SampleLimit    int    `json:"sample_limit"     env:"SAMPLE_LIMIT"     envDefault:"40"`
	RetrieverTopK  int    `json:"retriever_topk"   env:"RETRIEVER_TOPK"   envDefault:"8"`
	ParaphraseCap  int    `json:"paraphrase_cap"   env:"PARAPHRASE_CAP"   envDefault:"6"`
	FallbackTable  string `json:"fallback_table"   env:"FALLBACK_TABLE"   envDefault:"policies"`
	FallbackLimit  int    `json:"fallback_limit"   env:"FALLBACK_LIMIT"   envDefault:"25"`
	SynonymMinUses int    `json:"synonym_min_uses" env:"SYNONYM_MIN_USES" envDefault:"2"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`   // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`   // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stderr"` // stdout, stderr
}

// Load loads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite3", "duckdb":
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	if cfg.Generate.RowLimit <= 0 {
		return fmt.Errorf("row limit must be positive, got %d", cfg.Generate.RowLimit)
	}

	if cfg.Generate.RetrieverTopK <= 0 {
		return fmt.Errorf("retriever topk must be positive, got %d", cfg.Generate.RetrieverTopK)
	}

	return nil
}

// StateDir returns the expanded state directory, creating it if needed.
func (c *Config) StateDir() (string, error) {
	dir := expandPath(c.State.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}

	return dir, nil
}

// StatePath resolves a state file name against the state directory.
func (c *Config) StatePath(name string) (string, error) {
	dir, err := c.StateDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, name), nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}

	return path
}
