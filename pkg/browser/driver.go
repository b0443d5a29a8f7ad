package browser

import (
	"errors"
	"time"
)

// ErrUnsupported is returned by drivers for operations they cannot perform.
var ErrUnsupported = errors.New("operation not supported by this driver")

// WaitUntil names the navigation milestone Goto waits for.
type WaitUntil string

const (
	WaitLoad             WaitUntil = "load"
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitNetworkIdle      WaitUntil = "networkidle"
	WaitCommit           WaitUntil = "commit"
)

// ParseWaitUntil maps a configured wait condition to a WaitUntil. Empty
// selects WaitNetworkIdle.
func ParseWaitUntil(s string) (WaitUntil, bool) {
	switch WaitUntil(s) {
	case "":
		return WaitNetworkIdle, true
	case WaitLoad, WaitDOMContentLoaded, WaitNetworkIdle, WaitCommit:
		return WaitUntil(s), true
	}
	return "", false
}

// Session is an attached driver connection.
type Session interface {
	// Contexts returns the browser contexts in driver order.
	Contexts() []Context
	// Detach releases the driver connection without closing the browser.
	Detach() error
}

// Context is a browser context (a profile or incognito window group).
type Context interface {
	Pages() []Page
	NewPage() (Page, error)
}

// Page is a single tab.
type Page interface {
	// URL is the URL the driver last observed. It may be empty or
	// about:blank for tabs restored before the driver attached.
	URL() string
	Title() (string, error)

	// Evaluate runs a JavaScript expression through the low-level channel
	// and returns its JSON value.
	Evaluate(expression string, timeout time.Duration) (any, error)

	Goto(url string, waitUntil WaitUntil, timeout time.Duration) error
	MainFrame() Frame
	Content(timeout time.Duration) (string, error)
	Screenshot(fullPage bool, timeout time.Duration) ([]byte, error)

	Click(selector string, timeout time.Duration) error
	Fill(selector, value string, timeout time.Duration) error
	// Download clicks selector and waits for the download it starts.
	Download(selector string, timeout time.Duration) (Download, error)
}

// Frame is a document inside a page; the main frame included.
type Frame interface {
	Name() string
	URL() string
	ChildFrames() []Frame
	// AriaSnapshot returns the accessibility tree of the frame's body as
	// indented "- role "name"" lines.
	AriaSnapshot(timeout time.Duration) (string, error)
}

// Download is a file download started by Page.Download.
type Download interface {
	SuggestedFilename() string
	SaveAs(path string) error
}

// CountFrames returns the number of frames below the page's main frame.
func CountFrames(p Page) int {
	main := p.MainFrame()
	if main == nil {
		return 0
	}
	var count func(f Frame) int
	count = func(f Frame) int {
		n := 0
		for _, c := range f.ChildFrames() {
			n += 1 + count(c)
		}
		return n
	}
	return count(main)
}
