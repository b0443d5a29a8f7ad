package browser

import (
	"fmt"
	"net/url"
	"strings"
)

// Pages that never hold user content.
const (
	blankURL  = "about:blank"
	srcdocURL = "about:srcdoc"
)

var internalPrefixes = []string{
	"chrome://",
	"chrome-extension://",
	"chrome-untrusted://",
	"devtools://",
	"edge://",
}

// IsUserPage reports whether url belongs to a page the user opened, as
// opposed to a browser-internal, extension or blank page.
func IsUserPage(url string) bool {
	if url == "" || url == blankURL || url == srcdocURL {
		return false
	}
	for _, prefix := range internalPrefixes {
		if strings.HasPrefix(url, prefix) {
			return false
		}
	}
	return true
}

// IsBlankFrame reports whether a frame URL carries no document worth capturing.
func IsBlankFrame(url string) bool {
	return url == "" || url == blankURL || url == srcdocURL
}

// ValidateURL checks a start URL supplied by the user before it is handed to
// the browser or the recorder. Only http, https and about:blank are accepted.
func ValidateURL(raw string) error {
	if raw == blankURL {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return nil
}
