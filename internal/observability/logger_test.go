package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinsight/coinsight/internal/config"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(config.LoggingConfig{Level: "info", JSON: true}, &buf)
	logger.Info("question answered", "row_count", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "question answered", entry["msg"])
	assert.Equal(t, "coinsight", entry["service"])
	assert.EqualValues(t, 3, entry["row_count"])
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(config.LoggingConfig{Level: "info"}, &buf)
	logger.Info("seeded demo database")

	assert.Contains(t, buf.String(), "seeded demo database")
	assert.Contains(t, buf.String(), "service=coinsight")
}

func TestNewLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(config.LoggingConfig{Level: "warn"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("anything else"))
}
