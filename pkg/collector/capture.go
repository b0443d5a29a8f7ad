package collector

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/entrhq/materials/pkg/artifact"
	"github.com/entrhq/materials/pkg/browser"
	"github.com/entrhq/materials/pkg/snapshot"
	"github.com/microcosm-cc/bluemonday"
)

const evaluateTimeout = 5 * time.Second

// elementCountScript returns the element counts as a JSON string so both
// drivers hand back the same value type.
const elementCountScript = `JSON.stringify({` +
	`buttons: document.querySelectorAll('button, input[type="button"], input[type="submit"]').length,` +
	`links: document.querySelectorAll('a[href]').length,` +
	`inputs: document.querySelectorAll('input, textarea, select').length,` +
	`tables: document.querySelectorAll('table').length,` +
	`forms: document.querySelectorAll('form').length})`

// collectPage captures every enabled artifact of page. Artifact failures are
// recorded and do not stop the others.
func (c *Collector) collectPage(page browser.Page, name, description string) PageRecord {
	c.console.Section(fmt.Sprintf("Collecting %s (%s)", description, name))

	rec := PageRecord{
		Name:          name,
		URL:           browser.ResolvePageURL(page, c.log),
		Title:         browser.ResolvePageTitle(page, c.log),
		Description:   description,
		CollectedAt:   c.clock.ISO(),
		IframeCount:   browser.CountFrames(page),
		ElementCounts: c.countElements(page),
	}

	opts := c.cfg.CollectOptions
	if opts.AriaSnapshot {
		file, err := c.captureSnapshot(page, name, description)
		if err != nil {
			c.console.Errorf("accessibility snapshot failed: %v", err)
			c.addError(name, "ARIA snapshot failed: "+err.Error())
		}
		rec.Files.AriaSnapshot = file
	}

	if opts.Screenshot {
		file, err := c.captureScreenshot(page, name)
		if err != nil {
			c.console.Errorf("screenshot failed: %v", err)
			c.addError(name, "Screenshot failed: "+err.Error())
		}
		rec.Files.Screenshot = file
	}

	if opts.HTMLSource {
		file, err := c.captureHTML(page, name)
		if err != nil {
			c.console.Errorf("HTML capture failed: %v", err)
			c.addError(name, "HTML capture failed: "+err.Error())
		}
		rec.Files.HTMLSource = file
	}

	ec := rec.ElementCounts
	c.console.Infof("  %d iframes, %d buttons, %d links, %d inputs, %d tables, %d forms",
		rec.IframeCount, ec.Buttons, ec.Links, ec.Inputs, ec.Tables, ec.Forms)
	c.log.Infow("page collected", "name", name, "url", rec.URL, "iframes", rec.IframeCount)
	return rec
}

// captureSnapshot writes the snapshot document of page and returns its file
// name.
func (c *Collector) captureSnapshot(page browser.Page, name, description string) (string, error) {
	c.console.Verbosef("Capturing accessibility snapshot: %s", description)

	doc := snapshot.Capture(page, snapshot.Options{
		Project:     c.cfg.ProjectName,
		Description: description,
		CapturedAt:  c.clock.ISO(),
		MaxDepth:    c.cfg.CollectOptions.IframeDepth,
		Logger:      c.log,
	})
	if doc.MainFallback {
		c.console.Warningf("accessibility snapshot unavailable, used markup analysis for %s", name)
	}

	file := artifact.SafeFileName(name) + ".txt"
	text := doc.Render()
	if err := c.store.WriteFile(filepath.Join(artifact.DirSnapshots, file), []byte(text)); err != nil {
		return "", err
	}
	c.console.Successf("Saved %s (%d bytes, %d frames)", file, len(text), len(doc.Frames))
	return file, nil
}

// captureScreenshot writes a full-page PNG, falling back to the viewport.
func (c *Collector) captureScreenshot(page browser.Page, name string) (string, error) {
	file := artifact.SafeFileName(name) + ".png"

	data, err := page.Screenshot(true, ScreenshotTimeout)
	if err != nil {
		c.console.Warningf("full-page screenshot failed, trying the viewport: %v", err)
		c.log.Warnf("full-page screenshot of %s failed: %v", name, err)
		if data, err = page.Screenshot(false, ScreenshotTimeout); err != nil {
			return "", err
		}
	}

	if err := c.store.WriteFile(filepath.Join(artifact.DirScreenshots, file), data); err != nil {
		return "", err
	}
	c.console.Successf("Saved %s", file)
	return file, nil
}

// captureHTML writes the page markup, sanitized unless disabled.
func (c *Collector) captureHTML(page browser.Page, name string) (string, error) {
	markup, err := page.Content(snapshot.ContentTimeout)
	if err != nil {
		return "", err
	}
	if c.cfg.CollectOptions.SanitizeHTML {
		markup = sanitizeMarkup(markup)
	}

	file := artifact.SafeFileName(name) + ".html"
	if err := c.store.WriteFile(filepath.Join(artifact.DirHTML, file), []byte(markup)); err != nil {
		return "", err
	}
	c.console.Successf("Saved %s (%d bytes)", file, len(markup))
	return file, nil
}

// markupPolicy keeps the structure an automation author needs and drops
// scripts, event handlers, styles and every value attribute.
var markupPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("form", "input", "select", "option", "optgroup", "textarea", "button",
		"label", "fieldset", "legend", "iframe", "frame", "nav", "main", "header", "footer",
		"section", "article", "aside", "span", "div")
	p.AllowAttrs("id", "class", "name", "type", "role", "title", "placeholder", "for",
		"action", "method", "src", "disabled", "readonly", "checked", "selected", "multiple").Globally()
	p.AllowAttrs("aria-label", "aria-labelledby", "aria-describedby", "aria-expanded",
		"aria-selected", "aria-hidden", "data-testid").Globally()
	return p
}()

func sanitizeMarkup(markup string) string {
	return markupPolicy.Sanitize(markup)
}

// countElements returns zero counts when the page cannot be evaluated.
func (c *Collector) countElements(page browser.Page) ElementCounts {
	var counts ElementCounts
	v, err := page.Evaluate(elementCountScript, evaluateTimeout)
	if err == nil {
		s, ok := v.(string)
		if !ok {
			err = fmt.Errorf("unexpected result type %T", v)
		} else {
			err = json.Unmarshal([]byte(s), &counts)
		}
	}
	if err != nil {
		c.console.Warningf("element counting failed, using zeros")
		c.log.Warnf("element counting failed: %v", err)
		return ElementCounts{}
	}
	return counts
}
