package logging

import (
	"bufio"
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

func TestInitJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(Options{Level: "debug", Format: "json"}, &buf)

	WithComponent("catalog").Debug("hello", slog.String("k", "v"))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "hello", m["msg"])
	assert.Equal(t, "catalog", m["component"])
	assert.Equal(t, "bookcatalog", m["app"])
	assert.Equal(t, "v", m["k"])
}

func TestInitRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(Options{Level: "warn"}, &buf)

	L().Info("dropped")
	L().Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	var console bytes.Buffer
	InitWriter(Options{Level: "info", File: path}, &console)

	L().Info("to file", slog.Int("n", 3))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var last string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	require.NotEmpty(t, last)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(last), &m))
	assert.Equal(t, "to file", m["msg"])
	assert.EqualValues(t, 3, m["n"])
	assert.Contains(t, console.String(), "to file")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
