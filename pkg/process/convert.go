package process

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/entrhq/materials/pkg/artifact"
	"github.com/entrhq/materials/pkg/redact"
)

// Each pattern removes driver bootstrap or teardown that a reusable module
// receives from its caller instead.
var (
	reRequire      = regexp.MustCompile(`const\s*\{[^}]*\}\s*=\s*require\(['"]playwright['"]\);?\s*`)
	reImport       = regexp.MustCompile(`import\s*\{[^}]*\}\s*from\s*['"]playwright['"];?\s*`)
	reIIFEOpen     = regexp.MustCompile(`(?m)^\s*\(async\s*\(\)\s*=>\s*\{\s*`)
	reIIFEClose    = regexp.MustCompile(`(?m)\}\)\(\)\s*;?\s*$`)
	reLaunch       = regexp.MustCompile(`const\s+browser\s*=\s*await\s+chromium\.launch\([^)]*\);?\s*`)
	reNewContext   = regexp.MustCompile(`const\s+context\s*=\s*await\s+browser\.newContext\([^)]*\);?\s*`)
	reNewPage      = regexp.MustCompile(`const\s+page\s*=\s*await\s+context\.newPage\([^)]*\);?\s*`)
	reContextClose = regexp.MustCompile(`await\s+context\.close\(\)\s*;?\s*`)
	reBrowserClose = regexp.MustCompile(`await\s+browser\.close\(\)\s*;?\s*`)
	reDivider      = regexp.MustCompile(`//\s*-{5,}\s*`)
	reWarning      = regexp.MustCompile(`//\s*⚠️[^\n]*`)
	reBlankRun     = regexp.MustCompile(`\n{3,}`)
)

// Convert turns a recorded script into a module exporting
// run(page: Page). Launch, context creation and close calls are removed and
// credential literals are replaced through engine. It returns the module and
// the number of literals replaced.
func Convert(source, name, convertedAt string, engine *redact.Engine) (string, int) {
	if engine == nil {
		engine = redact.New()
	}

	out := strings.ReplaceAll(source, "\r\n", "\n")
	for _, re := range []*regexp.Regexp{reRequire, reImport} {
		out = re.ReplaceAllString(out, "")
	}
	out = replaceFirst(reIIFEOpen, out)
	out = replaceLast(reIIFEClose, out)
	for _, re := range []*regexp.Regexp{reLaunch, reNewContext, reNewPage, reContextClose, reBrowserClose, reDivider, reWarning} {
		out = re.ReplaceAllString(out, "")
	}

	out, replaced := engine.SanitizeCount(out)
	out = strings.TrimPrefix(out, engine.Header())
	out = reBlankRun.ReplaceAllString(out, "\n\n")
	out = strings.TrimSpace(out)

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		line = strings.TrimPrefix(line, "  ")
		if line != "" {
			line = "  " + line
		}
		lines[i] = line
	}

	var b strings.Builder
	b.WriteString("/**\n")
	b.WriteString(" * Reusable Playwright flow converted from a codegen recording.\n")
	fmt.Fprintf(&b, " * Recording: %s\n", name)
	fmt.Fprintf(&b, " * Converted: %s\n", convertedAt)
	b.WriteString(" *\n")
	b.WriteString(" * Usage:\n")
	fmt.Fprintf(&b, " *   import { run } from './%s';\n", artifact.SafeFileName(name))
	b.WriteString(" *   await run(page);\n")
	b.WriteString(" *\n")
	b.WriteString(" * Credential fields read environment placeholders.\n")
	b.WriteString(" */\n\n")
	b.WriteString("import type { Page } from 'playwright';\n\n")
	b.WriteString("export async function run(page: Page): Promise<void> {\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n}\n")
	return b.String(), replaced
}

func replaceFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}

// replaceLast removes the final match; inner closers stay.
func replaceLast(re *regexp.Regexp, s string) string {
	all := re.FindAllStringIndex(s, -1)
	if len(all) == 0 {
		return s
	}
	loc := all[len(all)-1]
	return s[:loc[0]] + s[loc[1]:]
}
