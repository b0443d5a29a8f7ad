package collector

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ReportFileName is the human-readable run summary.
const ReportFileName = "summary-report.md"

func (c *Collector) renderReport() string {
	m := c.meta
	var md strings.Builder

	md.WriteString("# Materials Collection Summary\n\n")
	fmt.Fprintf(&md, "> Project: %s\n", m.ProjectName)
	fmt.Fprintf(&md, "> Collected: %s (%s)\n", m.CollectedAt, m.Timezone)
	fmt.Fprintf(&md, "> Tool version: %s\n\n", m.ToolVersion)

	snapshots, screenshots, sources := 0, 0, 0
	for _, p := range m.CollectedPages {
		if p.Files.AriaSnapshot != "" {
			snapshots++
		}
		if p.Files.Screenshot != "" {
			screenshots++
		}
		if p.Files.HTMLSource != "" {
			sources++
		}
	}

	md.WriteString("## Results\n\n")
	md.WriteString("| Item | Count |\n|------|------|\n")
	fmt.Fprintf(&md, "| Pages | %d |\n", len(m.CollectedPages))
	fmt.Fprintf(&md, "| ARIA snapshots | %d |\n", snapshots)
	fmt.Fprintf(&md, "| Screenshots | %d |\n", screenshots)
	fmt.Fprintf(&md, "| HTML sources | %d |\n", sources)
	fmt.Fprintf(&md, "| Recordings | %d |\n", len(m.Recordings))
	if len(m.Downloads) > 0 {
		fmt.Fprintf(&md, "| Downloads | %d |\n", len(m.Downloads))
	}
	fmt.Fprintf(&md, "| Errors | %d |\n\n", len(m.Errors))

	md.WriteString("## Pages\n\n")
	md.WriteString("| # | Name | Description | iframes | Buttons | Links | Inputs |\n")
	md.WriteString("|---|------|-------------|---------|---------|-------|--------|\n")
	for i, p := range m.CollectedPages {
		fmt.Fprintf(&md, "| %d | %s | %s | %d | %d | %d | %d |\n", i+1,
			cell(p.Name), cell(p.Description), p.IframeCount,
			p.ElementCounts.Buttons, p.ElementCounts.Links, p.ElementCounts.Inputs)
	}

	if len(m.Recordings) > 0 {
		md.WriteString("\n## Recordings\n\n")
		md.WriteString("| Name | Description | File |\n|------|-------------|------|\n")
		for _, r := range m.Recordings {
			fmt.Fprintf(&md, "| %s | %s | %s |\n", cell(r.Name), cell(r.Description), r.File)
		}
	}

	if len(m.Downloads) > 0 {
		md.WriteString("\n## Downloads\n\n")
		for _, d := range m.Downloads {
			fmt.Fprintf(&md, "- `%s` from %s (%d bytes", d.File, d.Page, d.Bytes)
			if d.PDFPages > 0 {
				fmt.Fprintf(&md, ", %d PDF pages", d.PDFPages)
			}
			md.WriteString(")\n")
		}
	}

	if len(m.Errors) > 0 {
		md.WriteString("\n## ⚠️ Errors\n\n")
		for _, e := range m.Errors {
			fmt.Fprintf(&md, "- **%s**: %s (%s)\n", e.Page, e.Error, e.Timestamp)
		}
	}

	md.WriteString("\n## Layout\n\n```\n")
	fmt.Fprintf(&md, "%s/\n", filepath.Base(c.store.Root()))
	md.WriteString("├── aria-snapshots/     # accessibility snapshots, the main material\n")
	md.WriteString("├── screenshots/        # visual reference\n")
	if c.cfg.CollectOptions.HTMLSource {
		md.WriteString("├── html-sources/       # page markup\n")
	}
	if len(m.Downloads) > 0 {
		md.WriteString("├── downloads/          # files saved by download actions\n")
	}
	md.WriteString("├── recordings/         # codegen recordings with placeholders for secrets\n")
	md.WriteString("├── metadata.json       # run record\n")
	md.WriteString("├── index.db            # run history\n")
	md.WriteString("└── summary-report.md   # this report\n")
	md.WriteString("```\n")

	md.WriteString("\n## Run log\n\n")
	if m.LogFile != "" {
		fmt.Fprintf(&md, "- %s\n", m.LogFile)
	} else {
		md.WriteString("- logs/materials-*.log\n")
	}

	md.WriteString("\n## Next steps\n\n")
	md.WriteString("1. Take `aria-snapshots/` and `recordings/` to an environment with network access.\n")
	md.WriteString("2. Run `materials process` to turn them into structured JSON and reusable modules.\n")
	md.WriteString("3. Use the material to write the automation scripts.\n")
	md.WriteString("4. Bring the scripts back and test them against the internal system.\n")
	return md.String()
}

// cell keeps a value inside one markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
