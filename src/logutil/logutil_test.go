package logutil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactKey(t *testing.T) {
	assert.Equal(t, "********", RedactKey("short"))
	assert.Equal(t, "AIza...wxyz", RedactKey("AIzaSyD-0123456789wxyz"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, `a\nb\tc\x01`, Sanitize("a\nb\tc\x01"))

	long := strings.Repeat("я", 100)
	got := Sanitize(long)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("я", maxLoggedText)))
	assert.True(t, strings.HasSuffix(got, "…(100 chars)"))
}

func TestParse(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("tint"))
	assert.Equal(t, FormatAuto, ParseFormat("xml"))
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestSetupJSONWhenNotTTY(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	closer := Setup(Options{Format: FormatAuto, Level: slog.LevelInfo, Writer: &buf})
	defer closer.Close()

	slog.Debug("hidden")
	slog.Info("shown", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "v", rec["k"])
}

func TestFileLoggingRotates(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	dir := t.TempDir()
	path := filepath.Join(dir, logFileName)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), maxSizeBytes+1), 0o644))

	closer := Setup(Options{FileLogging: true, Dir: dir, Level: slog.LevelInfo})
	slog.Info("after rotation")
	require.NoError(t, closer.Close())

	archived, err := os.Stat(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, int64(maxSizeBytes+1), archived.Size())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after rotation")
}
