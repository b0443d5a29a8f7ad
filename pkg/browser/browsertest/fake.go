// Package browsertest provides in-memory implementations of the browser
// interfaces for tests.
package browsertest

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/entrhq/materials/pkg/browser"
)

// Session is a fake browser.Session.
type Session struct {
	Ctxs     []*Context
	Detached bool
}

// NewSession returns a session with one context holding pages.
func NewSession(pages ...*Page) *Session {
	return &Session{Ctxs: []*Context{{PageList: pages}}}
}

func (s *Session) Contexts() []browser.Context {
	out := make([]browser.Context, 0, len(s.Ctxs))
	for _, c := range s.Ctxs {
		out = append(out, c)
	}
	return out
}

func (s *Session) Detach() error {
	s.Detached = true
	return nil
}

// Context is a fake browser.Context. NewPage appends a page built by
// NewPageFunc, or an empty page when it is nil.
type Context struct {
	PageList    []*Page
	NewPageFunc func() (*Page, error)
	Created     []*Page
}

func (c *Context) Pages() []browser.Page {
	out := make([]browser.Page, 0, len(c.PageList))
	for _, p := range c.PageList {
		out = append(out, p)
	}
	return out
}

func (c *Context) NewPage() (browser.Page, error) {
	var (
		p   *Page
		err error
	)
	if c.NewPageFunc != nil {
		p, err = c.NewPageFunc()
	} else {
		p = &Page{KnownURL: "about:blank"}
	}
	if err != nil {
		return nil, err
	}
	c.Created = append(c.Created, p)
	return p, nil
}

// Page is a fake browser.Page. Zero values behave like an empty page that
// answers every call successfully.
type Page struct {
	KnownURL string
	// Href and DocTitle answer location.href and document.title.
	Href     string
	DocTitle string

	TitleValue string
	TitleErr   error
	TitleDelay time.Duration

	EvalErr     error
	EvalResults map[string]any

	GotoErr error
	// GotoSetsURL makes a successful Goto update KnownURL.
	GotoSetsURL bool

	Main          *Frame
	ContentValue  string
	ContentErr    error
	ScreenshotErr error
	// FullPageErr fails only full-page screenshots.
	FullPageErr error

	ClickErr    error
	FillErr     error
	DownloadErr error
	DownloadDoc *Download

	mu    sync.Mutex
	calls []string
}

func (p *Page) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

// Calls returns the recorded driver calls, such as "goto https://x" or "fill #u=v".
func (p *Page) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *Page) URL() string { return p.KnownURL }

func (p *Page) Title() (string, error) {
	if p.TitleDelay > 0 {
		time.Sleep(p.TitleDelay)
	}
	return p.TitleValue, p.TitleErr
}

func (p *Page) Evaluate(expression string, _ time.Duration) (any, error) {
	p.record("evaluate " + expression)
	if p.EvalErr != nil {
		return nil, p.EvalErr
	}
	if v, ok := p.EvalResults[expression]; ok {
		return v, nil
	}
	switch expression {
	case "location.href":
		return p.Href, nil
	case "document.title":
		return p.DocTitle, nil
	}
	return nil, errors.New("fake: no result for expression")
}

func (p *Page) Goto(url string, waitUntil browser.WaitUntil, _ time.Duration) error {
	p.record("goto " + url + " " + string(waitUntil))
	if p.GotoErr != nil {
		return p.GotoErr
	}
	if p.GotoSetsURL {
		p.KnownURL = url
	}
	return nil
}

func (p *Page) MainFrame() browser.Frame {
	if p.Main == nil {
		return &Frame{FrameURL: p.KnownURL}
	}
	return p.Main
}

func (p *Page) Content(timeout time.Duration) (string, error) {
	p.record("content " + timeout.String())
	return p.ContentValue, p.ContentErr
}

func (p *Page) Screenshot(fullPage bool, timeout time.Duration) ([]byte, error) {
	p.record("screenshot timeout " + timeout.String())
	if fullPage {
		p.record("screenshot full")
		if p.FullPageErr != nil {
			return nil, p.FullPageErr
		}
	} else {
		p.record("screenshot viewport")
	}
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	return []byte("\x89PNG fake"), nil
}

func (p *Page) Click(selector string, _ time.Duration) error {
	p.record("click " + selector)
	return p.ClickErr
}

func (p *Page) Fill(selector, value string, _ time.Duration) error {
	p.record("fill " + selector + "=" + value)
	return p.FillErr
}

func (p *Page) Download(selector string, _ time.Duration) (browser.Download, error) {
	p.record("download " + selector)
	if p.DownloadErr != nil {
		return nil, p.DownloadErr
	}
	if p.DownloadDoc == nil {
		return nil, browser.ErrUnsupported
	}
	return p.DownloadDoc, nil
}

// Frame is a fake browser.Frame.
type Frame struct {
	FrameName   string
	FrameURL    string
	Children    []*Frame
	Snapshot    string
	SnapshotErr error
}

func (f *Frame) Name() string { return f.FrameName }
func (f *Frame) URL() string  { return f.FrameURL }

func (f *Frame) ChildFrames() []browser.Frame {
	out := make([]browser.Frame, 0, len(f.Children))
	for _, c := range f.Children {
		out = append(out, c)
	}
	return out
}

func (f *Frame) AriaSnapshot(time.Duration) (string, error) {
	return f.Snapshot, f.SnapshotErr
}

// Download is a fake browser.Download that writes Data on SaveAs.
type Download struct {
	Name string
	Data []byte
}

func (d *Download) SuggestedFilename() string { return d.Name }

func (d *Download) SaveAs(path string) error {
	return os.WriteFile(path, d.Data, 0600)
}
