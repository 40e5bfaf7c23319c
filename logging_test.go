package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestSetupLoggingLevel(t *testing.T) {
	restoreDefaultLogger(t)
	cfg := TestConfig(t.TempDir())
	cfg.LogLevel = "warn"

	var stderr bytes.Buffer
	closeLog, err := SetupLogging(cfg, &stderr)
	require.NoError(t, err)
	defer closeLog()

	slog.Info("hidden")
	slog.Warn("shown", "food", "oats")

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "level=WARN msg=shown food=oats")
}

func TestSetupLoggingFile(t *testing.T) {
	restoreDefaultLogger(t)
	cfg := TestConfig(t.TempDir())
	cfg.LogLevel = "debug"
	cfg.LogFile = filepath.Join(t.TempDir(), "nosh.log")

	var stderr bytes.Buffer
	closeLog, err := SetupLogging(cfg, &stderr)
	require.NoError(t, err)

	slog.Debug("loading record", "path", "food/oats.txt")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=\"loading record\" path=food/oats.txt")
	assert.Contains(t, stderr.String(), "loading record")
}

func TestSetupLoggingErrors(t *testing.T) {
	restoreDefaultLogger(t)

	cfg := TestConfig(t.TempDir())
	cfg.LogLevel = "chatty"
	_, err := SetupLogging(cfg, &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid log level")

	cfg = TestConfig(t.TempDir())
	cfg.LogFile = filepath.Join(t.TempDir(), "missing", "nosh.log")
	_, err = SetupLogging(cfg, &bytes.Buffer{})
	assert.ErrorContains(t, err, "error opening log file")
}
