package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	require.Equal(t, slog.LevelError, ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, ParseLevel("info"))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown", "project_id", "p-1")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.Contains(t, out, "project_id=p-1")
}

func TestFileWriterTruncatesToRecentBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bluecarbon.log")
	w, err := newFileWriter(path, 64, 32)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	for i := 0; i < 10; i++ {
		_, err := w.Write([]byte(strings.Repeat(string(rune('a'+i)), 10) + "\n"))
		require.NoError(t, err)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.LessOrEqual(t, len(data), 64)
	require.True(t, strings.HasSuffix(string(data), strings.Repeat("j", 10)+"\n"))
	require.NotContains(t, string(data), "aaaa")
}

func TestFileWriterAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	w, err := NewFileWriter(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = NewFileWriter(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first\nsecond\n", string(data))
}
