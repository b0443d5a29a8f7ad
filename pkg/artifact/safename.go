package artifact

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// MaxFileNameLength is the maximum length, in runes, of a name returned by SafeFileName.
const MaxFileNameLength = 80

// reservedChars are replaced with an underscore because at least one
// supported filesystem refuses them in file names.
const reservedChars = `<>:"|?*`

// now is swapped in tests.
var now = time.Now

// SafeFileName turns an arbitrary user-supplied label into a name that is safe
// to use as a single path element. The result never contains a path
// separator, a ".." sequence or a control character, is lower case and is at
// most MaxFileNameLength runes long. Names that end up empty or dot-leading are
// replaced with "unnamed-<unix millis>".
func SafeFileName(name string) string {
	s := strings.NewReplacer("/", "", `\`, "").Replace(name)
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", "")
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(reservedChars, r), unicode.IsControl(r):
			b.WriteRune('_')
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}

	out := truncateRunes(b.String(), MaxFileNameLength)
	if out == "" || strings.HasPrefix(out, ".") {
		return fmt.Sprintf("unnamed-%d", now().UnixMilli())
	}
	return out
}

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
