// Package redact removes literal credentials from recorded browser scripts.
//
// Recorded scripts are JavaScript or TypeScript produced by a recorder, so
// the engine works on lines with ordered regular expressions instead of a
// parser. It prefers replacing a harmless literal to leaving a secret in
// place: the value of any two-argument fill or type call is replaced whatever
// its target, and any single-argument call that survives the targeted rules
// has its literal replaced as well.
//
// The default placeholders are RECORDING_PASSWORD and RECORDING_USERNAME.
// Recordings sanitized earlier with other names, such as
// process.env.NCERT_USERNAME, are left as they are; pass WithUsernameRef and
// WithPasswordRef to keep new output consistent with them.
package redact

import (
	"strings"
)

// Default placeholder references inserted in place of literals.
const (
	DefaultPasswordRef = "process.env.RECORDING_PASSWORD"
	DefaultUsernameRef = "process.env.RECORDING_USERNAME"
)

// Engine rewrites scripts with a fixed rule list.
type Engine struct {
	passwordRef string
	usernameRef string
	header      string
	rules       []rule
}

// Option configures an Engine.
type Option func(*Engine)

// WithPasswordRef sets the expression that replaces password literals.
func WithPasswordRef(ref string) Option {
	return func(e *Engine) { e.passwordRef = ref }
}

// WithUsernameRef sets the expression that replaces account literals.
func WithUsernameRef(ref string) Option {
	return func(e *Engine) { e.usernameRef = ref }
}

// New returns an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		passwordRef: DefaultPasswordRef,
		usernameRef: DefaultUsernameRef,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.header = "// ⚠️ sensitive fields in this recording were replaced with environment placeholders (" +
		e.passwordRef + " / " + e.usernameRef + ")"
	e.rules = buildRules(e.passwordRef, e.usernameRef)
	return e
}

// Header returns the warning line placed at the top of sanitized scripts.
func (e *Engine) Header() string {
	return e.header
}

var defaultEngine = New()

// Sanitize rewrites script with the default engine.
func Sanitize(script string) string {
	return defaultEngine.Sanitize(script)
}

// Sanitize returns script with credential literals replaced by placeholder
// references and the warning header prepended. Comment lines are returned
// byte for byte. Sanitize is idempotent.
func (e *Engine) Sanitize(script string) string {
	out, _ := e.SanitizeCount(script)
	return out
}

// SanitizeCount is Sanitize that also reports how many literals were replaced.
func (e *Engine) SanitizeCount(script string) (string, int) {
	lines := strings.Split(script, "\n")
	inBlock := false
	replaced := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch {
		case inBlock:
			if strings.Contains(line, "*/") {
				inBlock = opensBlock(line[strings.LastIndex(line, "*/")+2:])
			}
			continue
		case strings.HasPrefix(trimmed, "//"):
			continue
		case strings.HasPrefix(trimmed, "/*"):
			inBlock = opensBlock(trimmed[2:]) || !strings.Contains(trimmed[2:], "*/")
			continue
		}

		rewritten, n := e.rewrite(line)
		lines[i] = rewritten
		replaced += n
		inBlock = opensBlock(line)
	}

	out := strings.Join(lines, "\n")
	if !strings.HasPrefix(out, e.header) {
		out = e.header + "\n" + out
	}
	return out, replaced
}

// rewrite applies every rule, in order, until the line stops changing.
func (e *Engine) rewrite(line string) (string, int) {
	total := 0
	for {
		changed := false
		for _, r := range e.rules {
			next, n := r.apply(line)
			if n > 0 {
				line = next
				total += n
				changed = true
			}
		}
		if !changed {
			return line, total
		}
	}
}

// opensBlock reports whether code leaves a block comment open at its end.
// String literals and line comments are ignored.
func opensBlock(code string) bool {
	code = reString.ReplaceAllString(code, `""`)
	open := false
	for i := 0; i < len(code)-1; i++ {
		pair := code[i : i+2]
		switch {
		case !open && pair == "//":
			return false
		case !open && pair == "/*":
			open = true
			i++
		case open && pair == "*/":
			open = false
			i++
		}
	}
	return open
}
