package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitDisabledDiscards(t *testing.T) {
	closeFn, err := Init(Options{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, closeFn())
	require.False(t, L.Enabled(t.Context(), slog.LevelError))
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kma.log")
	closeFn, err := Init(Options{Enabled: true, Path: path, Level: slog.LevelDebug, JSON: true})
	require.NoError(t, err)
	t.Cleanup(func() { L = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)) })

	L.Debug("page acquired", "id", 3)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"page acquired"`)
	require.Contains(t, string(data), `"id":3`)
}

func TestNewRespectsLevel(t *testing.T) {
	var out bytes.Buffer
	l := New(&out, slog.LevelWarn, false)
	l.Info("hidden")
	l.Warn("shown")
	require.NotContains(t, out.String(), "hidden")
	require.Contains(t, out.String(), "shown")
}
