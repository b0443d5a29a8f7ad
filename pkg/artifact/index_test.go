package artifact

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenIndex(filepath.Join(t.TempDir(), IndexFileName))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndex_RecordAndList(t *testing.T) {
	idx := openTestIndex(t)

	require.NoError(t, idx.RecordRun(RunRow{
		ID: "run-1", Project: "portal", Mode: "auto",
		StartedAt: "2026-01-01T10:00:00+08:00", FinishedAt: "2026-01-01T10:05:00+08:00",
		OutputDir: "out/portal-1", TotalPages: 2, Collected: 2,
		Pages: []PageRow{
			{Name: "login", URL: "https://example.test/login", Snapshot: "login-aria.txt", Iframes: 1},
			{Name: "home", URL: "https://example.test/", Snapshot: "home-aria.txt", Screenshot: "home.png"},
		},
	}))
	require.NoError(t, idx.RecordRun(RunRow{
		ID: "run-2", Project: "portal", Mode: "snapshot",
		StartedAt: "2026-01-02T10:00:00+08:00", FinishedAt: "2026-01-02T10:00:30+08:00",
		OutputDir: "out/portal-2", TotalPages: 1, Collected: 0, Errors: 1,
	}))

	runs, err := idx.Runs(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, 1, runs[0].Errors)
	assert.Equal(t, "run-1", runs[1].ID)

	pages, err := idx.Pages("run-1")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "login", pages[0].Name)
	assert.Equal(t, 1, pages[0].Iframes)
	assert.Equal(t, "home.png", pages[1].Screenshot)
}

func TestIndex_RecordRunReplaces(t *testing.T) {
	idx := openTestIndex(t)

	run := RunRow{ID: "r", Project: "p", Mode: "auto", StartedAt: "a", FinishedAt: "b", OutputDir: "o",
		Pages: []PageRow{{Name: "one"}, {Name: "two"}}}
	require.NoError(t, idx.RecordRun(run))

	run.Collected = 1
	run.Pages = run.Pages[:1]
	require.NoError(t, idx.RecordRun(run))

	runs, err := idx.Runs(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Collected)

	pages, err := idx.Pages("r")
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}
