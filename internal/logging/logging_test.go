package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "taskmgr.log")
	logger, closer, err := New(path, "debug")
	require.NoError(t, err)

	logger.Debug("task added", "id", "abc")
	logger.Info("tasks saved", "count", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `msg="task added"`)
	assert.Contains(t, text, "id=abc")
	assert.Contains(t, text, "count=3")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New("", "chatty")
	assert.Error(t, err)
}

func TestNewEmptyPathDiscards(t *testing.T) {
	logger, closer, err := New("", "")
	require.NoError(t, err)
	logger.Info("nothing to see")
	assert.NoError(t, closer.Close())
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, log.WarnLevel)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
