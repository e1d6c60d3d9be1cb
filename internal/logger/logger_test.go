package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSystemLogger_WritesJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, closer, err := NewSystemLogger(dir, slog.LevelInfo)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("notification sent", "alert", "disk")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "system.log"))
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "notification sent", rec["msg"])
	assert.Equal(t, "disk", rec["alert"])
}

func TestNewSystemLogger_TeesToExtraHandlers(t *testing.T) {
	var buf bytes.Buffer
	extra := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	log, closer, err := NewSystemLogger(t.TempDir(), slog.LevelWarn, extra)
	require.NoError(t, err)
	defer closer.Close()

	log.With("component", "dispatcher").WithGroup("smtp").Debug("dialing", "host", "mx")
	assert.Contains(t, buf.String(), "component=dispatcher")
	assert.Contains(t, buf.String(), "smtp.host=mx")
}

func TestNewSystemLogger_ExtraHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	extra := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError})

	dir := t.TempDir()
	log, closer, err := NewSystemLogger(dir, slog.LevelInfo, extra)
	require.NoError(t, err)
	log.Info("info only")
	log.Error("both")
	require.NoError(t, closer.Close())

	assert.NotContains(t, buf.String(), "info only")
	assert.Contains(t, buf.String(), "both")

	data, err := os.ReadFile(filepath.Join(dir, "system.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "info only")
	assert.Contains(t, string(data), "both")
}
