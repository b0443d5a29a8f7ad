package snapshot

import (
	"regexp"
	"strconv"
	"strings"
)

// Link is a link found in a snapshot.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Field is an interactive form control.
type Field struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

// Table is a table with optional header cells.
type Table struct {
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// Element is a top-level node of the main document.
type Element struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

// Parsed is the structured content of a snapshot document.
type Parsed struct {
	CapturedAt  string    `json:"capturedAt"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Project     string    `json:"project"`
	Description string    `json:"description,omitempty"`
	Fallback    bool      `json:"fallback"`
	FrameCount  int       `json:"frameCount"`
	Links       []Link    `json:"links"`
	FormFields  []Field   `json:"formFields"`
	Tables      []Table   `json:"tables"`
	Elements    []Element `json:"elements"`
}

var formRoles = map[string]bool{
	"textbox":    true,
	"searchbox":  true,
	"combobox":   true,
	"listbox":    true,
	"checkbox":   true,
	"radio":      true,
	"switch":     true,
	"spinbutton": true,
	"slider":     true,
	"button":     true,
}

var (
	reHeaderLine = regexp.MustCompile(`^# ([^:]+): ?(.*)$`)
	reAriaLine   = regexp.MustCompile(`^(\s*)- ([A-Za-z]+)(?: "((?:[^"\\]|\\.)*)")?((?: \[[^\]]*\])*):?(?: (.*))?$`)
	reURLLine    = regexp.MustCompile(`^(\s*)- /url: ?(.*)$`)
	reBracket    = regexp.MustCompile(`\[([a-z]+)="((?:[^"\\]|\\.)*)"\]`)
)

type ariaLine struct {
	indent int
	role   string
	name   string
	attrs  map[string]string
	value  string
}

// Parse reads a document produced by Document.Render (or an older snapshot
// with the same layout) back into structured form.
func Parse(text string) *Parsed {
	p := &Parsed{}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	i := 0
	for ; i < len(lines); i++ {
		l := lines[i]
		if strings.HasPrefix(l, "## ") {
			break
		}
		m := reHeaderLine.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		switch m[1] {
		case LabelCapturedAt:
			p.CapturedAt = m[2]
		case LabelPageURL:
			p.URL = m[2]
		case LabelPageTitle:
			p.Title = m[2]
		case LabelProject:
			p.Project = m[2]
		case LabelDescription:
			p.Description = m[2]
		}
	}

	var (
		inMain    bool
		lastLink  = -1
		linkDepth int
		table     *Table
		tableAt   int
		row       []string
		rowAt     = -1
	)
	flushRow := func() {
		if table != nil && len(row) > 0 {
			table.Rows = append(table.Rows, row)
		}
		row, rowAt = nil, -1
	}
	flushTable := func() {
		flushRow()
		if table != nil {
			p.Tables = append(p.Tables, *table)
		}
		table = nil
	}

	for ; i < len(lines); i++ {
		raw := lines[i]
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == SectionMain:
			inMain = true
			continue
		case trimmed == SectionFrames:
			flushTable()
			inMain = false
			continue
		case trimmed == FallbackMarker:
			p.Fallback = true
			continue
		case strings.HasPrefix(trimmed, "### frame:"):
			flushTable()
			p.FrameCount++
			continue
		}

		if m := reURLLine.FindStringSubmatch(raw); m != nil {
			if lastLink >= 0 && len(m[1]) > linkDepth {
				p.Links[lastLink].URL = m[2]
			}
			continue
		}

		al, ok := parseAriaLine(raw)
		if !ok {
			continue
		}

		if table != nil && al.indent <= tableAt {
			flushTable()
		}
		if rowAt >= 0 && al.indent <= rowAt {
			flushRow()
		}

		if inMain && al.indent == 0 {
			p.Elements = append(p.Elements, Element{Role: al.role, Name: al.name})
		}

		switch al.role {
		case "link":
			p.Links = append(p.Links, Link{Text: al.name, URL: al.attrs["href"]})
			lastLink, linkDepth = len(p.Links)-1, al.indent
		case "table", "grid", "treegrid":
			flushTable()
			table, tableAt = &Table{}, al.indent
		case "row":
			if table == nil {
				break
			}
			flushRow()
			rowAt = al.indent
			if al.value != "" {
				row = splitCells(al.value)
			}
		case "columnheader":
			if table != nil {
				table.Headers = append(table.Headers, cellText(al))
			}
		case "cell", "gridcell", "rowheader":
			if rowAt >= 0 {
				row = append(row, cellText(al))
			}
		}

		if formRoles[al.role] {
			p.FormFields = append(p.FormFields, Field{Role: al.role, Name: al.name})
		}
		if al.role == "input" || al.role == "select" || al.role == "textarea" {
			p.FormFields = append(p.FormFields, Field{Role: al.role, Name: al.attrs["name"]})
		}
	}
	flushTable()
	return p
}

func parseAriaLine(raw string) (ariaLine, bool) {
	m := reAriaLine.FindStringSubmatch(raw)
	if m == nil {
		return ariaLine{}, false
	}
	al := ariaLine{
		indent: len(m[1]),
		role:   m[2],
		name:   unquote(m[3]),
		value:  strings.TrimSpace(m[5]),
		attrs:  map[string]string{},
	}
	for _, b := range reBracket.FindAllStringSubmatch(m[4], -1) {
		al.attrs[b[1]] = unquote(b[2])
	}
	return al, true
}

func cellText(al ariaLine) string {
	if al.name != "" {
		return al.name
	}
	return al.value
}

func splitCells(s string) []string {
	parts := strings.Split(s, " | ")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func unquote(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}
