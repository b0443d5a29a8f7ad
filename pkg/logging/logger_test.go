package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDir points the package at a temporary directory and resets global state
func setupTestDir(t *testing.T) string {
	t.Helper()

	tempDir := t.TempDir()

	origLogDir := logDir
	origRunID := runID

	logDir = tempDir
	runID = ""
	runIDOnce = sync.Once{}

	t.Cleanup(func() {
		logDir = origLogDir
		runID = origRunID
		runIDOnce = sync.Once{}
		if origRunID != "" {
			runIDOnce.Do(func() {})
		}
	})
	return tempDir
}

func readEntries(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	dir := setupTestDir(t)

	logger, err := NewLogger("collector")
	require.NoError(t, err)
	defer logger.Close()

	assert.Equal(t, "collector", logger.Component())
	assert.NotEmpty(t, logger.RunID())
	assert.Equal(t, filepath.Join(dir, "materials-"+logger.RunID()+".log"), logger.LogPath())
}

func TestLogger_WritesJSONLines(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("resolver")
	require.NoError(t, err)

	logger.Infof("resolved %s", "https://example.test/")
	logger.Warnw("title probe failed", "page", 2)
	require.NoError(t, logger.Close())

	entries := readEntries(t, logger.LogPath())
	require.Len(t, entries, 2)
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "resolved https://example.test/", entries[0]["msg"])
	assert.Equal(t, "resolver", entries[0]["component"])
	assert.Equal(t, logger.RunID(), entries[0]["run_id"])
	assert.Equal(t, "warn", entries[1]["level"])
	assert.EqualValues(t, 2, entries[1]["page"])
}

func TestLogger_SharedRunFile(t *testing.T) {
	setupTestDir(t)

	a, err := NewLogger("a")
	require.NoError(t, err)
	b, err := NewLogger("b")
	require.NoError(t, err)

	assert.Equal(t, a.RunID(), b.RunID())
	assert.Equal(t, a.LogPath(), b.LogPath())

	a.Infof("from a")
	b.Errorf("from b")
	require.NoError(t, a.Close())
	require.NoError(t, b.Close())

	entries := readEntries(t, a.LogPath())
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0]["component"])
	assert.Equal(t, "b", entries[1]["component"])
}

func TestLogger_FallbackOnBadDirectory(t *testing.T) {
	dir := setupTestDir(t)
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))
	logDir = filepath.Join(blocker, "logs")

	logger, err := NewLogger("x")
	require.Error(t, err)
	require.NotNil(t, logger)
	assert.Empty(t, logger.LogPath())
	logger.Infof("still usable")
	assert.NoError(t, logger.Close())
}

func TestLogger_CloseTwice(t *testing.T) {
	setupTestDir(t)
	logger, err := NewLogger("x")
	require.NoError(t, err)
	assert.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Debugf("nothing")
	l.Errorf("nothing")
	assert.Empty(t, l.LogPath())
	assert.NoError(t, l.Close())
}
