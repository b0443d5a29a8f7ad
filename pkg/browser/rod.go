package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ConnectRod attaches to the browser behind a CDP endpoint using rod.
// endpoint may be an http URL or host:port; it is resolved to the browser's
// websocket URL first.
func ConnectRod(endpoint string) (Session, error) {
	wsURL, err := launcher.ResolveURL(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve CDP endpoint %s: %w", endpoint, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect over CDP: %w", err)
	}
	return &rodSession{browser: b, cancel: cancel}, nil
}

type rodSession struct {
	browser *rod.Browser
	cancel  context.CancelFunc
}

// Contexts groups page targets by browser context, in the order the
// browser reports them.
func (s *rodSession) Contexts() []Context {
	res, err := proto.TargetGetTargets{}.Call(s.browser)
	if err != nil {
		return nil
	}

	var out []Context
	byID := map[proto.BrowserBrowserContextID]*rodContext{}
	for _, info := range res.TargetInfos {
		if info.Type != proto.TargetTargetInfoTypePage {
			continue
		}
		c, ok := byID[info.BrowserContextID]
		if !ok {
			c = &rodContext{browser: s.browser, id: info.BrowserContextID}
			byID[info.BrowserContextID] = c
			out = append(out, c)
		}
		c.targets = append(c.targets, info)
	}
	return out
}

// Detach closes the websocket. The browser keeps running.
func (s *rodSession) Detach() error {
	s.cancel()
	return nil
}

type rodContext struct {
	browser *rod.Browser
	id      proto.BrowserBrowserContextID
	targets []*proto.TargetTargetInfo
}

func (c *rodContext) Pages() []Page {
	var out []Page
	for _, info := range c.targets {
		p, err := c.browser.PageFromTarget(info.TargetID)
		if err != nil {
			continue
		}
		out = append(out, &rodPage{page: p, knownURL: info.URL})
	}
	return out
}

func (c *rodContext) NewPage() (Page, error) {
	p, err := c.browser.Page(proto.TargetCreateTarget{URL: blankURL, BrowserContextID: c.id})
	if err != nil {
		return nil, err
	}
	return &rodPage{page: p, knownURL: blankURL}, nil
}

type rodPage struct {
	page     *rod.Page
	knownURL string
}

func (p *rodPage) URL() string {
	return p.knownURL
}

func (p *rodPage) Title() (string, error) {
	info, err := p.page.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (p *rodPage) Evaluate(expression string, timeout time.Duration) (any, error) {
	res, err := proto.RuntimeEvaluate{
		Expression:    expression,
		ReturnByValue: true,
	}.Call(p.page.Timeout(timeout))
	if err != nil {
		return nil, err
	}
	if res.ExceptionDetails != nil {
		return nil, fmt.Errorf("evaluation threw: %s", res.ExceptionDetails.Text)
	}
	return res.Result.Value.Val(), nil
}

// Goto navigates and waits for the load event. rod has no network-idle
// milestone, so every wait condition except commit waits for load.
func (p *rodPage) Goto(url string, waitUntil WaitUntil, timeout time.Duration) error {
	page := p.page.Timeout(timeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	p.knownURL = url
	if waitUntil == WaitCommit {
		return nil
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *rodPage) MainFrame() Frame {
	tree, err := proto.PageGetFrameTree{}.Call(p.page)
	if err != nil || tree.FrameTree == nil {
		return &rodFrame{page: p.page, url: p.knownURL}
	}
	return newRodFrame(p.page, tree.FrameTree)
}

func (p *rodPage) Content(timeout time.Duration) (string, error) {
	return p.page.Timeout(timeout).HTML()
}

func (p *rodPage) Screenshot(fullPage bool, timeout time.Duration) ([]byte, error) {
	return p.page.Timeout(timeout).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (p *rodPage) Click(selector string, timeout time.Duration) error {
	el, err := p.page.Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) Fill(selector, value string, timeout time.Duration) error {
	el, err := p.page.Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(value)
}

func (p *rodPage) Download(string, time.Duration) (Download, error) {
	return nil, ErrUnsupported
}

type rodFrame struct {
	page     *rod.Page
	id       proto.PageFrameID
	name     string
	url      string
	children []Frame
}

func newRodFrame(page *rod.Page, tree *proto.PageFrameTree) *rodFrame {
	f := &rodFrame{page: page}
	if tree.Frame != nil {
		f.id = tree.Frame.ID
		f.name = tree.Frame.Name
		f.url = tree.Frame.URL
	}
	for _, child := range tree.ChildFrames {
		f.children = append(f.children, newRodFrame(page, child))
	}
	return f
}

func (f *rodFrame) Name() string         { return f.name }
func (f *rodFrame) URL() string          { return f.url }
func (f *rodFrame) ChildFrames() []Frame { return f.children }

func (f *rodFrame) AriaSnapshot(timeout time.Duration) (string, error) {
	res, err := proto.AccessibilityGetFullAXTree{FrameID: f.id}.Call(f.page.Timeout(timeout))
	if err != nil {
		return "", err
	}
	return renderAXTree(res.Nodes), nil
}

// renderAXTree prints an accessibility tree as "- role "name"" lines, two
// spaces per level. Ignored nodes and unnamed generic containers are
// flattened into their parent.
func renderAXTree(nodes []*proto.AccessibilityAXNode) string {
	if len(nodes) == 0 {
		return ""
	}

	byID := make(map[proto.AccessibilityAXNodeID]*proto.AccessibilityAXNode, len(nodes))
	for _, n := range nodes {
		byID[n.NodeID] = n
	}
	root := nodes[0]
	for _, n := range nodes {
		if n.ParentID == "" {
			root = n
			break
		}
	}

	var sb strings.Builder
	var walk func(id proto.AccessibilityAXNodeID, depth int)
	walk = func(id proto.AccessibilityAXNodeID, depth int) {
		n, ok := byID[id]
		if !ok {
			return
		}
		role := axString(n.Role)
		name := axString(n.Name)
		if n.Ignored || transparentRole(role, name) {
			for _, c := range n.ChildIDs {
				walk(c, depth)
			}
			return
		}

		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString("- ")
		if role == "StaticText" {
			role = "text"
		}
		sb.WriteString(role)
		if name != "" {
			sb.WriteString(" ")
			sb.WriteString(strconv.Quote(name))
		}
		sb.WriteString("\n")
		for _, c := range n.ChildIDs {
			walk(c, depth+1)
		}
	}

	// The document node itself is implied by the section header.
	for _, c := range root.ChildIDs {
		walk(c, 0)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func transparentRole(role, name string) bool {
	switch role {
	case "", "none", "generic", "InlineTextBox", "LineBreak":
		return true
	case "StaticText":
		return name == ""
	}
	return false
}

func axString(v *proto.AccessibilityAXValue) string {
	if v == nil {
		return ""
	}
	raw := v.Value.JSON("", "")
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return s
		}
	}
	return raw
}

