package snapshot

import (
	"time"

	"github.com/entrhq/materials/pkg/browser"
	"github.com/entrhq/materials/pkg/logging"
)

// Extraction timeouts.
const (
	MainSnapshotTimeout  = 15 * time.Second
	FrameSnapshotTimeout = 8 * time.Second
	// ContentTimeout bounds reading the page markup.
	ContentTimeout = 10 * time.Second
)

// Frame depth bounds.
const (
	DefaultMaxDepth = 3
	MaxDepthLimit   = 10
)

// ClampDepth limits a configured frame depth to 0..MaxDepthLimit.
func ClampDepth(d int) int {
	switch {
	case d < 0:
		return 0
	case d > MaxDepthLimit:
		return MaxDepthLimit
	}
	return d
}

// Options controls a capture.
type Options struct {
	Project     string
	Description string
	// CapturedAt is written verbatim into the header.
	CapturedAt string
	// MaxDepth is the deepest frame level visited; 0 captures no frames.
	MaxDepth int
	Logger   *logging.Logger
}

// Capture builds the snapshot document for page. It never fails: a failed
// main-document extraction falls back to markup analysis and a failed frame
// becomes a placeholder line.
func Capture(page browser.Page, opts Options) *Document {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	doc := &Document{Header: Header{
		CapturedAt:  opts.CapturedAt,
		URL:         browser.ResolvePageURL(page, log),
		Title:       browser.ResolvePageTitle(page, log),
		Project:     opts.Project,
		Description: opts.Description,
	}}

	main := page.MainFrame()
	if main == nil {
		doc.Main, doc.MainFallback = fallback(page, log)
		return doc
	}

	snap, err := main.AriaSnapshot(MainSnapshotTimeout)
	if err != nil {
		log.Warnf("main document accessibility snapshot failed, using markup analysis: %v", err)
		doc.Main, doc.MainFallback = fallback(page, log)
	} else {
		doc.Main = snap
	}

	doc.Frames = walkFrames(main, 0, ClampDepth(opts.MaxDepth), log)
	return doc
}

func fallback(page browser.Page, log *logging.Logger) (string, bool) {
	markup, err := page.Content(ContentTimeout)
	if err != nil {
		log.Warnf("page content unavailable for markup analysis: %v", err)
	}
	out, truncated := ExtractStructure(markup)
	if truncated {
		log.Warnf("page markup is %d bytes, only the first %d were analysed", len(markup), MaxMarkupBytes)
	}
	return out, true
}

// walkFrames visits the children of parent depth-first in document order.
// Children are emitted at depth+1 and only while depth < maxDepth. Blank
// frames are skipped together with their subtrees.
func walkFrames(parent browser.Frame, depth, maxDepth int, log *logging.Logger) []FrameSection {
	if depth >= maxDepth {
		return nil
	}

	var out []FrameSection
	for _, f := range parent.ChildFrames() {
		url := f.URL()
		if browser.IsBlankFrame(url) {
			continue
		}

		sec := FrameSection{Depth: depth + 1, Name: f.Name(), URL: url}
		snap, err := f.AriaSnapshot(FrameSnapshotTimeout)
		if err != nil {
			log.Warnf("frame %q (%s) accessibility snapshot failed: %v", sec.Name, url, err)
			sec.Failed = true
		} else {
			sec.Snapshot = snap
		}
		out = append(out, sec)
		out = append(out, walkFrames(f, depth+1, maxDepth, log)...)
	}
	return out
}
