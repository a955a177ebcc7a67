package logging

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	require.Equal(t, slog.LevelInfo, ParseLevel("info"))
	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, LevelTrace, ParseLevel("trace"))
	require.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNew_WritesToLogFile(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "out.log")

	log, err := New("debug", logFile)
	require.NoError(t, err)
	log.Info("hello", "k", "v")

	require.FileExists(t, logFile)
}

func TestNew_DefaultsToStderrWithoutLogFile(t *testing.T) {
	log, err := New("info", "")
	require.NoError(t, err)
	require.NotNil(t, log)
}
