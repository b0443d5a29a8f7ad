package redact

import (
	"regexp"
	"strings"
)

// Word lists matched, case-insensitively, inside role names and selectors.
var (
	passwordTerms = []string{"密碼", "密码", "パスワード", "password", "passwd", "passcode", "pwd"}
	usernameTerms = []string{"帳號", "賬號", "账号", "使用者", "用戶", "用户", "ユーザー", "account", "username", "user", "login", "email", "e-mail"}
)

// Building blocks.
const (
	// A quoted string literal with escapes; template literals included.
	strLit = `(?:'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"|` + "`(?:[^`\\\\]|\\\\.)*`" + `)`
	// The typing call whose argument is redacted.
	typeCall = `\.(fill|type|pressSequentially)\(\s*`
	// Optional trailing options object, one level of nesting allowed:
	// , { timeout: 5000, o: { a: 1 } }
	optsArg = `(\s*,\s*\{(?:[^{}]|\{[^{}]*\})*\})?`
	// The target of a two-argument call: a literal selector, or an
	// expression without quotes, commas or calls such as sel or this.fields.pw.
	target = `(?:` + strLit + "|[^\\s,()'\"`](?:[^,()'\"`]*[^\\s,()'\"`])?)"
	// Narrowing calls allowed between the locator and the typing call.
	narrowing = `(?:\.(?:first|last|nth)\([^()]*\))*`
)

var reString = regexp.MustCompile(strLit)

func vocab(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return `(?i:` + strings.Join(quoted, "|") + `)`
}

type rule struct {
	name string
	re   *regexp.Regexp
	repl string
}

func (r rule) apply(line string) (string, int) {
	n := len(r.re.FindAllStringIndex(line, -1))
	if n == 0 {
		return line, 0
	}
	return r.re.ReplaceAllString(line, r.repl), n
}

// buildRules returns the rules in application order.
func buildRules(passwordRef, usernameRef string) []rule {
	pw, user := vocab(passwordTerms), vocab(usernameTerms)
	byRole := `getBy(?:Role|Label|Placeholder)\([^()]*`
	pwRef := escapeRepl(passwordRef)
	userRef := escapeRepl(usernameRef)

	return []rule{
		{
			// page.fill('#password', 'secret'), page.type(sel, "secret")
			name: "two-argument",
			re:   regexp.MustCompile(typeCall + `(` + target + `)\s*,\s*` + strLit + optsArg + `\s*\)`),
			repl: `.${1}(${2}, ` + pwRef + `${3})`,
		},
		{
			// getByRole('textbox', { name: '密碼' }).fill('secret')
			name: "role-password",
			re:   regexp.MustCompile(`(` + byRole + pw + `[^()]*\)` + narrowing + `)` + typeCall + strLit + optsArg + `\s*\)`),
			repl: `${1}.${2}(` + pwRef + `${3})`,
		},
		{
			// getByRole('textbox', { name: '帳號' }).fill('alice')
			name: "role-username",
			re:   regexp.MustCompile(`(` + byRole + user + `[^()]*\)` + narrowing + `)` + typeCall + strLit + optsArg + `\s*\)`),
			repl: `${1}.${2}(` + userRef + `${3})`,
		},
		{
			// locator('#password').fill('secret')
			name: "selector-password",
			re:   regexp.MustCompile(`(locator\([^()]*` + pw + `[^()]*\)` + narrowing + `)` + typeCall + strLit + optsArg + `\s*\)`),
			repl: `${1}.${2}(` + pwRef + `${3})`,
		},
		{
			// anything else: .fill('text')
			name: "fallback",
			re:   regexp.MustCompile(typeCall + strLit + optsArg + `\s*\)`),
			repl: `.${1}(` + pwRef + `${2})`,
		},
	}
}

// escapeRepl protects '$' in a placeholder used inside a replacement template.
func escapeRepl(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
