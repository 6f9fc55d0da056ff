package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter("info", "stdio", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("visible")
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "stdio", entry["mode"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewWithWriter_DebugConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter("debug", "server", &buf)
	require.NoError(t, err)

	logger.Debug("tier finished")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, "tier finished")
	assert.Contains(t, out, "DEBUG")
	assert.False(t, strings.HasPrefix(out, "{"), "debug output should use the console encoder")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("loud", "stdio")
	assert.Error(t, err)
}
