package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	logger := NewLogger(nil)
	assert.NotNil(t, logger)

	logger.Info("test info", "key", "value")
	logger.Debug("test debug", "key", "value")
	logger.Warn("test warn", "key", "value")
	logger.Error("test error", "key", "value")

	withLogger := logger.With("module", "test")
	assert.NotNil(t, withLogger)
	withLogger.Info("test with logger")

	assert.NotNil(t, logger.Impl())
}

func TestLoggerDestination(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, OutputJSONOption(), LevelOption(zerolog.WarnLevel))

	logger.Info("dropped")
	logger.With("peer", "ed25519:abc").Warn("handshake failed", "reason", "GenesisMismatch")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "handshake failed", entry["msg"])
	assert.Equal(t, "ed25519:abc", entry["peer"])
	assert.Equal(t, "GenesisMismatch", entry["reason"])
	assert.Contains(t, entry, "timestamp")
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	assert.NotNil(t, logger)

	logger.Info("test info")
	logger.Debug("test debug")
	logger.Warn("test warn")
	logger.Error("test error")
}

func TestTestLogger(t *testing.T) {
	logger := NewTestLogger(t)
	assert.NotNil(t, logger)

	logger.Info("test info")
	logger.Debug("test debug")
	logger.Warn("test warn")
	logger.With("k", 1).Info("test with")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
