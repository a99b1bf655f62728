package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.DSN)
	assert.Equal(t, "~/.config/sqlpilot", cfg.State.Dir)
	assert.Equal(t, "feedback.jsonl", cfg.State.FeedbackLog)
	assert.Equal(t, 50, cfg.State.MaxPatternsUse)
	assert.Equal(t, 200, cfg.Generate.RowLimit)
	assert.Equal(t, 8, cfg.Generate.RetrieverTopK)
	assert.Equal(t, 6, cfg.Generate.ParaphraseCap)
	assert.Equal(t, "policies", cfg.Generate.FallbackTable)
	assert.Equal(t, 2, cfg.Generate.SynonymMinUses)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SQLPILOT_DB_DRIVER", "duckdb")
	t.Setenv("SQLPILOT_DB_DSN", "/tmp/test.duckdb")
	t.Setenv("SQLPILOT_ROW_LIMIT", "50")
	t.Setenv("SQLPILOT_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Database.Driver)
	assert.Equal(t, "/tmp/test.duckdb", cfg.Database.DSN)
	assert.Equal(t, 50, cfg.Generate.RowLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad driver", "SQLPILOT_DB_DRIVER", "mysql"},
		{"bad log level", "SQLPILOT_LOG_LEVEL", "verbose"},
		{"zero row limit", "SQLPILOT_ROW_LIMIT", "0"},
		{"zero topk", "SQLPILOT_RETRIEVER_TOPK", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestStatePath(t *testing.T) {
	dir := t.TempDir()

	cfg := &Config{State: StateConfig{Dir: filepath.Join(dir, "state")}}

	path, err := cfg.StatePath("feedback.jsonl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "state", "feedback.jsonl"), path)

	// StateDir creates the directory.
	assert.DirExists(t, filepath.Join(dir, "state"))
}

func TestExpandPath(t *testing.T) {
	assert.Equal(t, "/absolute/path", expandPath("/absolute/path"))
	assert.NotContains(t, expandPath("~/state"), "~")
}
