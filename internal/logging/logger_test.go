package logging

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picmon/internal/config"
)

func TestNewWithWriter_prodIsJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{AppEnv: "prod", LogLevel: slog.LevelInfo, Transport: "mqtt"}

	logger := NewWithWriter(&buf, cfg, "1.2.3", "picmon")
	logger.Info("hello", "station", 556)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "picmon", line["app"])
	assert.Equal(t, "1.2.3", line["version"])
	assert.Equal(t, "prod", line["env"])
	assert.Equal(t, "mqtt", line["transport"])
	assert.EqualValues(t, 556, line["station"])
}

func TestNewWithWriter_respectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{AppEnv: "prod", LogLevel: slog.LevelWarn}

	logger := NewWithWriter(&buf, cfg, "1.2.3", "picmon")
	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewWithWriter_devIsText(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{AppEnv: "dev", LogLevel: slog.LevelDebug}

	NewWithWriter(&buf, cfg, "dev", "picmon").Debug("connecting")

	out := buf.String()
	assert.Contains(t, out, "connecting")
	assert.Contains(t, out, "app=picmon")
	assert.NotContains(t, out, "\x1b[", "no ANSI colors off a terminal")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestIsTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, isTerminal(f))
	assert.False(t, isTerminal(&bytes.Buffer{}))
}
