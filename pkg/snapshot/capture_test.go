package snapshot

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/materials/pkg/browser/browsertest"
)

// chain builds main -> f1 -> f2 -> ... -> fn.
func chain(n int) *browsertest.Frame {
	main := &browsertest.Frame{FrameURL: "https://top/", Snapshot: "- main"}
	cur := main
	for i := 1; i <= n; i++ {
		child := &browsertest.Frame{
			FrameName: fmt.Sprintf("f%d", i),
			FrameURL:  fmt.Sprintf("https://frame/%d", i),
			Snapshot:  fmt.Sprintf("- heading \"level %d\"", i),
		}
		cur.Children = []*browsertest.Frame{child}
		cur = child
	}
	return main
}

func TestCapture_DepthBound(t *testing.T) {
	const treeDepth = 6
	for k := 0; k <= treeDepth; k++ {
		t.Run(fmt.Sprintf("maxDepth=%d", k), func(t *testing.T) {
			page := &browsertest.Page{KnownURL: "https://top/", Main: chain(treeDepth)}
			doc := Capture(page, Options{MaxDepth: k})

			require.Len(t, doc.Frames, k)
			for i, f := range doc.Frames {
				assert.Equal(t, i+1, f.Depth)
			}
		})
	}
}

func TestCapture_DepthIsClamped(t *testing.T) {
	page := &browsertest.Page{KnownURL: "https://top/", Main: chain(12)}
	doc := Capture(page, Options{MaxDepth: 50})
	assert.Len(t, doc.Frames, MaxDepthLimit)

	doc = Capture(page, Options{MaxDepth: -1})
	assert.Empty(t, doc.Frames)
}

func TestCapture_BlankFrameSubtreeSkipped(t *testing.T) {
	frameB := &browsertest.Frame{FrameName: "b", FrameURL: "about:blank",
		Children: []*browsertest.Frame{{FrameName: "c", FrameURL: "https://c/"}}}
	frameA := &browsertest.Frame{FrameName: "a", FrameURL: "https://x/", Snapshot: "- text: A",
		Children: []*browsertest.Frame{frameB}}
	page := &browsertest.Page{KnownURL: "https://top/", Main: &browsertest.Frame{Children: []*browsertest.Frame{frameA}}}

	doc := Capture(page, Options{MaxDepth: 2})
	require.Len(t, doc.Frames, 1)
	assert.Equal(t, "a", doc.Frames[0].Name)
}

func TestCapture_FrameFailureIsIsolated(t *testing.T) {
	broken := &browsertest.Frame{FrameName: "broken", FrameURL: "https://broken/",
		SnapshotErr: errors.New("cross-origin"),
		Children:    []*browsertest.Frame{{FrameName: "inner", FrameURL: "https://inner/", Snapshot: "- text: inner"}}}
	sibling := &browsertest.Frame{FrameName: "ok", FrameURL: "https://ok/", Snapshot: "- button \"Go\""}
	main := &browsertest.Frame{Snapshot: "- main", Children: []*browsertest.Frame{broken, sibling}}

	doc := Capture(&browsertest.Page{KnownURL: "https://top/", Main: main}, Options{MaxDepth: 3})

	require.Len(t, doc.Frames, 3)
	assert.Equal(t, "broken", doc.Frames[0].Name)
	assert.True(t, doc.Frames[0].Failed)
	assert.Equal(t, "inner", doc.Frames[1].Name)
	assert.Equal(t, 2, doc.Frames[1].Depth)
	assert.Equal(t, "ok", doc.Frames[2].Name)
	assert.False(t, doc.Frames[2].Failed)

	out := doc.Render()
	assert.Contains(t, out, "  "+FramePlaceholder+"\n")
	assert.Contains(t, out, "    - text: inner")
}

func TestCapture_MainFallback(t *testing.T) {
	main := &browsertest.Frame{SnapshotErr: errors.New("timeout")}
	page := &browsertest.Page{
		KnownURL:     "https://top/",
		Main:         main,
		ContentValue: `<html><body><button>Save</button></body></html>`,
	}

	doc := Capture(page, Options{})
	assert.True(t, doc.MainFallback)
	assert.Equal(t, `- button "Save"`, doc.Main)
	assert.Contains(t, page.Calls(), "content "+ContentTimeout.String(), "markup read is bounded")

	out := doc.Render()
	assert.Contains(t, out, SectionMain+"\n\n"+FallbackMarker+"\n\n- button \"Save\"\n")
}

func TestCapture_MainFallbackWithoutContent(t *testing.T) {
	page := &browsertest.Page{
		KnownURL:   "https://top/",
		Main:       &browsertest.Frame{SnapshotErr: errors.New("timeout")},
		ContentErr: errors.New("detached"),
	}
	doc := Capture(page, Options{})
	assert.Equal(t, NoStructureSentinel, doc.Main)
}

func TestCapture_HeaderComesFirst(t *testing.T) {
	page := &browsertest.Page{
		KnownURL:   "https://portal.test/report",
		TitleValue: "Monthly\nReport",
		Main:       &browsertest.Frame{Snapshot: "- heading \"Report\" [level=1]"},
	}
	doc := Capture(page, Options{
		Project:     "portal",
		Description: "report page",
		CapturedAt:  "2026-10-19T09:00:00+08:00",
	})

	lines := strings.Split(doc.Render(), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, []string{
		"# Captured At: 2026-10-19T09:00:00+08:00",
		"# Page URL: https://portal.test/report",
		"# Page Title: Monthly Report",
		"# Project: portal",
		"# Description: report page",
	}, lines[:5])
	assert.NotContains(t, doc.Render(), SectionFrames)
}

func TestRender_FrameSection(t *testing.T) {
	doc := &Document{
		Header: Header{CapturedAt: "t", URL: "u", Title: "x", Project: "p"},
		Main:   "- main",
		Frames: []FrameSection{
			{Depth: 1, Name: "", URL: "https://a/", Snapshot: "- link \"A\":\n  - /url: /a"},
			{Depth: 2, Name: "nested", URL: "https://b/", Failed: true},
		},
	}

	want := `# Captured At: t
# Page URL: u
# Page Title: x
# Project: p

## main document

- main

## frame structure
# frames found: 2

  ### frame: unnamed
  URL: https://a/
  - link "A":
    - /url: /a

    ### frame: nested
    URL: https://b/
    (accessibility snapshot unavailable for this frame)
`
	assert.Equal(t, want, doc.Render())
}

func TestRender_EmptyMain(t *testing.T) {
	doc := &Document{}
	assert.Contains(t, doc.Render(), SectionMain+"\n\n"+EmptyMainSnapshot+"\n")
}
