package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"mskboard/internal/core"
)

var _ core.Logger = (*Adapter)(nil)

func TestNewConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Console: &buf})
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", zap.String("key", "value"))
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "value")
}

func TestNewJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Console: &buf})
	require.NoError(t, err)
	logger.Info("hello")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mskboard.log")
	logger, err := New(Options{Level: "debug", File: path, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	logger.Debug("to file")
	require.NoError(t, logger.Sync())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"msg":"to file"`), string(data))
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestAdapterPassesKeyValues(t *testing.T) {
	obsCore, logs := observer.New(zap.DebugLevel)
	adapter := NewAdapter(zap.New(obsCore))
	adapter.Debug("d", "operation", "create_suggestion")
	adapter.Info("i")
	adapter.Warn("w", "id", "s1")
	adapter.Error("e", "error", "boom")
	require.NoError(t, adapter.Sync())

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "create_suggestion", entries[0].ContextMap()["operation"])
	assert.Equal(t, "s1", entries[2].ContextMap()["id"])
	assert.Equal(t, zap.ErrorLevel, entries[3].Level)
}
