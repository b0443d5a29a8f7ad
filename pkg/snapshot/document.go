// Package snapshot captures a page's accessibility structure, including
// nested frames, as a single text document.
//
// A document starts with header lines of the form "# <label>: <value>" in a
// fixed order, followed by a "## main document" section and, when any frame
// was captured, a "## frame structure" section. Downstream tooling relies on
// the header coming first.
package snapshot

import (
	"fmt"
	"strings"
)

// Header labels, in output order.
const (
	LabelCapturedAt  = "Captured At"
	LabelPageURL     = "Page URL"
	LabelPageTitle   = "Page Title"
	LabelProject     = "Project"
	LabelDescription = "Description"
)

// Section headings.
const (
	SectionMain   = "## main document"
	SectionFrames = "## frame structure"
)

// Markers written into the body when a capture degrades.
const (
	FallbackMarker    = "(main document accessibility snapshot failed; using markup analysis)"
	FramePlaceholder  = "(accessibility snapshot unavailable for this frame)"
	EmptyMainSnapshot = "(empty accessibility tree)"
)

// Header holds the fields written before any body content.
type Header struct {
	CapturedAt  string
	URL         string
	Title       string
	Project     string
	Description string
}

// FrameSection is one captured frame. Depth is 1 for children of the main
// frame.
type FrameSection struct {
	Depth    int
	Name     string
	URL      string
	Snapshot string
	Failed   bool
}

// Document is a rendered-once capture of one page.
type Document struct {
	Header       Header
	Main         string
	MainFallback bool
	Frames       []FrameSection
}

// Render returns the document text.
func (d *Document) Render() string {
	var b strings.Builder

	writeHeader(&b, LabelCapturedAt, d.Header.CapturedAt)
	writeHeader(&b, LabelPageURL, d.Header.URL)
	writeHeader(&b, LabelPageTitle, d.Header.Title)
	writeHeader(&b, LabelProject, d.Header.Project)
	if d.Header.Description != "" {
		writeHeader(&b, LabelDescription, d.Header.Description)
	}

	b.WriteString("\n")
	b.WriteString(SectionMain)
	b.WriteString("\n\n")
	if d.MainFallback {
		b.WriteString(FallbackMarker)
		b.WriteString("\n\n")
	}
	main := strings.TrimRight(d.Main, "\n")
	if main == "" {
		main = EmptyMainSnapshot
	}
	b.WriteString(main)
	b.WriteString("\n")

	if len(d.Frames) > 0 {
		b.WriteString("\n")
		b.WriteString(SectionFrames)
		b.WriteString("\n")
		fmt.Fprintf(&b, "# frames found: %d\n", len(d.Frames))
		for _, f := range d.Frames {
			b.WriteString("\n")
			f.render(&b)
		}
	}
	return b.String()
}

func (f FrameSection) render(b *strings.Builder) {
	indent := strings.Repeat("  ", f.Depth)
	name := f.Name
	if name == "" {
		name = "unnamed"
	}
	fmt.Fprintf(b, "%s### frame: %s\n", indent, oneLine(name))
	fmt.Fprintf(b, "%sURL: %s\n", indent, f.URL)
	if f.Failed {
		b.WriteString(indent)
		b.WriteString(FramePlaceholder)
		b.WriteString("\n")
		return
	}
	b.WriteString(indentLines(strings.TrimRight(f.Snapshot, "\n"), indent))
	b.WriteString("\n")
}

func writeHeader(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "# %s: %s\n", label, oneLine(value))
}

// oneLine keeps header values on their own line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func indentLines(s, indent string) string {
	if indent == "" || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n")
}
