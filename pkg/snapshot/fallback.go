package snapshot

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// MaxMarkupBytes caps the markup handed to ExtractStructure.
const MaxMarkupBytes = 5 << 20

// NoStructureSentinel is returned when the markup shows no structure at all.
const NoStructureSentinel = "(no structure extracted; the page may be empty or dynamically rendered)"

// Truncation limits, in runes.
const (
	maxCellText = 60
	maxLinkText = 60
	maxHref     = 80
)

// Patterns are deliberately loose; the input is whatever the page served.
var (
	reNoise    = regexp.MustCompile(`(?is)<(script|style|noscript|template)\b[^>]*>.*?</(script|style|noscript|template)\s*>|<!--.*?-->`)
	reTable    = regexp.MustCompile(`(?is)<table\b[^>]*>(.*?)</table\s*>`)
	reRow      = regexp.MustCompile(`(?is)<tr\b[^>]*>(.*?)</tr\s*>`)
	reCell     = regexp.MustCompile(`(?is)<t[dh]\b[^>]*>(.*?)</t[dh]\s*>`)
	reButton   = regexp.MustCompile(`(?is)<button\b[^>]*>(.*?)</button\s*>`)
	reLink     = regexp.MustCompile(`(?is)<a\b([^>]*)>(.*?)</a\s*>`)
	reInput    = regexp.MustCompile(`(?is)<input\b([^>]*)>`)
	reSelect   = regexp.MustCompile(`(?is)<select\b([^>]*)>(.*?)</select\s*>`)
	reOption   = regexp.MustCompile(`(?is)<option\b[^>]*>(.*?)</option\s*>`)
	reTextarea = regexp.MustCompile(`(?is)<textarea\b([^>]*)>`)
	reTag      = regexp.MustCompile(`(?s)<[^>]*>`)
	reAttr     = regexp.MustCompile(`(?is)([a-z_:][-a-z0-9_:.]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
)

// ExtractStructure summarises the interactive structure of raw markup with
// pattern matching. It is used when no accessibility tree is available and is
// lossy by nature. Markup beyond MaxMarkupBytes is ignored; the second return
// value reports that truncation happened.
func ExtractStructure(markup string) (string, bool) {
	truncated := false
	if len(markup) > MaxMarkupBytes {
		markup = cutBytes(markup, MaxMarkupBytes)
		truncated = true
	}
	markup = reNoise.ReplaceAllString(markup, "")

	var lines []string

	for _, t := range reTable.FindAllStringSubmatch(markup, -1) {
		lines = append(lines, "- table")
		for _, r := range reRow.FindAllStringSubmatch(t[1], -1) {
			var cells []string
			for _, c := range reCell.FindAllStringSubmatch(r[1], -1) {
				cells = append(cells, truncate(text(c[1]), maxCellText))
			}
			if len(cells) > 0 {
				lines = append(lines, "  - row: "+strings.Join(cells, " | "))
			}
		}
	}

	for _, m := range reButton.FindAllStringSubmatch(markup, -1) {
		lines = append(lines, fmt.Sprintf("- button %q", text(m[1])))
	}

	for _, m := range reLink.FindAllStringSubmatch(markup, -1) {
		attrs := parseAttrs(m[1])
		line := fmt.Sprintf("- link %q", truncate(text(m[2]), maxLinkText))
		if href, ok := attrs["href"]; ok {
			line += fmt.Sprintf(" [href=%q]", truncate(href, maxHref))
		}
		lines = append(lines, line)
	}

	for _, m := range reInput.FindAllStringSubmatch(markup, -1) {
		attrs := parseAttrs(m[1])
		typ := attrs["type"]
		if typ == "" {
			typ = "text"
		}
		line := fmt.Sprintf("- input [type=%q]", typ)
		if name, ok := attrs["name"]; ok {
			line += fmt.Sprintf(" [name=%q]", name)
		}
		lines = append(lines, line)
	}

	for _, m := range reSelect.FindAllStringSubmatch(markup, -1) {
		attrs := parseAttrs(m[1])
		var opts []string
		for _, o := range reOption.FindAllStringSubmatch(m[2], -1) {
			opts = append(opts, text(o[1]))
		}
		lines = append(lines, fmt.Sprintf("- select [name=%q] options: [%s]", attrs["name"], strings.Join(opts, ", ")))
	}

	for _, m := range reTextarea.FindAllStringSubmatch(markup, -1) {
		attrs := parseAttrs(m[1])
		lines = append(lines, fmt.Sprintf("- textarea [name=%q]", attrs["name"]))
	}

	if len(lines) == 0 {
		return NoStructureSentinel, truncated
	}
	return strings.Join(lines, "\n"), truncated
}

// text strips tags, decodes entities and collapses whitespace.
func text(fragment string) string {
	s := reTag.ReplaceAllString(fragment, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

func parseAttrs(s string) map[string]string {
	attrs := map[string]string{}
	for _, m := range reAttr.FindAllStringSubmatch(s, -1) {
		name := strings.ToLower(m[1])
		if _, seen := attrs[name]; seen {
			continue
		}
		attrs[name] = html.UnescapeString(m[2] + m[3] + m[4])
	}
	return attrs
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// cutBytes returns at most n bytes of s without splitting a UTF-8 sequence.
func cutBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
