package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_InitCreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "run")
	s := NewStore(root)
	require.NoError(t, s.Init())

	for _, sub := range []string{DirSnapshots, DirScreenshots, DirRecordings, DirHTML} {
		info, err := os.Stat(filepath.Join(root, sub))
		require.NoError(t, err, sub)
		assert.True(t, info.IsDir())
	}
}

func TestStore_WriteJSON(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.WriteJSON("nested/meta.json", map[string]int{"pages": 2}))

	data, err := os.ReadFile(s.Path("nested", "meta.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"pages": 2}`, string(data))
}

func TestStore_WriteFileReplacesWhole(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.WriteFile("report.md", []byte("first version, longer")))
	require.NoError(t, s.WriteFile("report.md", []byte("second")))

	data, err := os.ReadFile(s.Path("report.md"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.NoFileExists(t, s.Path("report.md.tmp"))

	info, err := os.Stat(s.Path("report.md"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
