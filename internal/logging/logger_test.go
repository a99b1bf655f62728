package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwmorris/sqlpilot/internal/config"
)

func captureLogger(t *testing.T, level, format string) (*Logger, *bytes.Buffer) {
	t.Helper()

	logger, err := NewLogger(config.LoggingConfig{Level: level, Format: format, Output: "stderr"})
	require.NoError(t, err)

	var buf bytes.Buffer
	logger.output = &buf

	return logger, &buf
}

func TestLogLevelFiltering(t *testing.T) {
	logger, buf := captureLogger(t, "warn", "text")

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("visible warn")
	logger.Error("visible error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warn")
	assert.Contains(t, out, "visible error")
}

func TestJSONFormat(t *testing.T) {
	logger, buf := captureLogger(t, "info", "json")

	logger.WithField("table", "claims").Info("schema learned")

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "schema learned", entry.Message)
	assert.Equal(t, "claims", entry.Fields["table"])
	assert.NotEmpty(t, entry.Timestamp)
}

func TestWithFieldDoesNotMutate(t *testing.T) {
	logger, buf := captureLogger(t, "info", "text")

	derived := logger.WithField("k", "v")
	derived.output = buf

	logger.Info("base message")

	out := buf.String()
	assert.NotContains(t, out, "k=v")
}

func TestWithError(t *testing.T) {
	logger, buf := captureLogger(t, "info", "text")

	withErr := logger.WithError(fmt.Errorf("boom"))
	withErr.output = buf
	withErr.Warn("ingest failed")

	assert.Contains(t, buf.String(), "error=boom")

	// Nil error is a no-op.
	assert.Same(t, logger, logger.WithError(nil))
}

func TestFormatfVariants(t *testing.T) {
	logger, buf := captureLogger(t, "debug", "text")

	logger.Debugf("learned %d tables", 4)
	logger.Infof("corpus size %d", 12)

	out := buf.String()
	assert.Contains(t, out, "learned 4 tables")
	assert.Contains(t, out, "corpus size 12")
}

func TestNewLoggerRejectsBadOutput(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "info", Format: "text", Output: "syslog"})
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, InfoLevel, parseLogLevel("unknown"))
}
