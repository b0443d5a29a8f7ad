package browser

import (
	"fmt"
	"io"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ConnectPlaywright attaches to the browser behind a CDP endpoint such as
// http://127.0.0.1:9222. The Playwright driver is installed on first use;
// browser binaries are never downloaded.
func ConnectPlaywright(endpoint string) (Session, error) {
	opts := &playwright.RunOptions{
		SkipInstallBrowsers: true,
		Verbose:             false,
		Stdout:              io.Discard,
		Stderr:              io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return nil, fmt.Errorf("failed to install playwright driver: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	b, err := pw.Chromium.ConnectOverCDP(endpoint)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to connect over CDP: %w", err)
	}

	return &pwSession{pw: pw, browser: b}, nil
}

type pwSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

func (s *pwSession) Contexts() []Context {
	var out []Context
	for _, c := range s.browser.Contexts() {
		out = append(out, &pwContext{ctx: c})
	}
	return out
}

// Detach stops the driver process. Browser.Close is deliberately not called:
// on a CDP connection it would tear down the user's contexts.
func (s *pwSession) Detach() error {
	return s.pw.Stop()
}

type pwContext struct {
	ctx playwright.BrowserContext
}

func (c *pwContext) Pages() []Page {
	var out []Page
	for _, p := range c.ctx.Pages() {
		out = append(out, &pwPage{page: p})
	}
	return out
}

func (c *pwContext) NewPage() (Page, error) {
	p, err := c.ctx.NewPage()
	if err != nil {
		return nil, err
	}
	return &pwPage{page: p}, nil
}

type pwPage struct {
	page playwright.Page
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) Title() (string, error) {
	return p.page.Title()
}

// Evaluate opens a raw CDP session for the page and calls Runtime.evaluate.
// This keeps working for pages whose Playwright-side state never initialised.
func (p *pwPage) Evaluate(expression string, timeout time.Duration) (any, error) {
	return withTimeout("evaluate", timeout, func() (any, error) {
		cdp, err := p.page.Context().NewCDPSession(p.page)
		if err != nil {
			return nil, fmt.Errorf("failed to open CDP session: %w", err)
		}
		defer cdp.Detach() //nolint:errcheck

		res, err := cdp.Send("Runtime.evaluate", map[string]interface{}{
			"expression":    expression,
			"returnByValue": true,
		})
		if err != nil {
			return nil, err
		}
		return runtimeValue(res)
	})
}

// runtimeValue unpacks the value of a Runtime.evaluate response.
func runtimeValue(res interface{}) (any, error) {
	m, ok := res.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected Runtime.evaluate response %T", res)
	}
	if exc, ok := m["exceptionDetails"].(map[string]interface{}); ok {
		return nil, fmt.Errorf("evaluation threw: %v", exc["text"])
	}
	result, ok := m["result"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("Runtime.evaluate response has no result")
	}
	return result["value"], nil
}

func (p *pwPage) Goto(url string, waitUntil WaitUntil, timeout time.Duration) error {
	opts := playwright.PageGotoOptions{Timeout: millis(timeout)}
	if waitUntil != "" {
		state := playwright.WaitUntilState(waitUntil)
		opts.WaitUntil = &state
	}
	if _, err := p.page.Goto(url, opts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *pwPage) MainFrame() Frame {
	return &pwFrame{frame: p.page.MainFrame()}
}

// Content has no driver-side timeout option, so the wait is bounded here.
func (p *pwPage) Content(timeout time.Duration) (string, error) {
	return withTimeout("page content", timeout, p.page.Content)
}

func (p *pwPage) Screenshot(fullPage bool, timeout time.Duration) ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
		Type:     playwright.ScreenshotTypePng,
		Timeout:  millis(timeout),
	})
}

func (p *pwPage) Click(selector string, timeout time.Duration) error {
	return p.page.Locator(selector).Click(playwright.LocatorClickOptions{Timeout: millis(timeout)})
}

func (p *pwPage) Fill(selector, value string, timeout time.Duration) error {
	return p.page.Locator(selector).Fill(value, playwright.LocatorFillOptions{Timeout: millis(timeout)})
}

func (p *pwPage) Download(selector string, timeout time.Duration) (Download, error) {
	dl, err := p.page.ExpectDownload(func() error {
		return p.page.Locator(selector).Click(playwright.LocatorClickOptions{Timeout: millis(timeout)})
	}, playwright.PageExpectDownloadOptions{Timeout: millis(timeout)})
	if err != nil {
		return nil, err
	}
	return dl, nil
}

type pwFrame struct {
	frame playwright.Frame
}

func (f *pwFrame) Name() string {
	return f.frame.Name()
}

func (f *pwFrame) URL() string {
	return f.frame.URL()
}

func (f *pwFrame) ChildFrames() []Frame {
	var out []Frame
	for _, c := range f.frame.ChildFrames() {
		out = append(out, &pwFrame{frame: c})
	}
	return out
}

func (f *pwFrame) AriaSnapshot(timeout time.Duration) (string, error) {
	return f.frame.Locator("body").AriaSnapshot(playwright.LocatorAriaSnapshotOptions{
		Timeout: millis(timeout),
	})
}
