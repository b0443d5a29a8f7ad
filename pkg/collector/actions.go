package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/materials/pkg/artifact"
	"github.com/entrhq/materials/pkg/browser"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Action timing.
const (
	ClickTimeout    = 10 * time.Second
	FillTimeout     = 10 * time.Second
	DownloadTimeout = 30 * time.Second

	settleAfterClick = time.Second
)

// executeActions runs the actions of target in order. A failed action is a
// warning; the remaining actions still run.
func (c *Collector) executeActions(page browser.Page, target PageTarget) {
	for i, a := range target.Actions {
		if err := c.executeAction(page, target.Name, a); err != nil {
			c.console.Warningf("action %d (%s) failed: %v", i+1, a.Type, err)
			c.log.Warnf("page %s action %d (%s) failed: %v", target.Name, i+1, a.Type, err)
		}
	}
}

func (c *Collector) executeAction(page browser.Page, pageName string, a PageAction) error {
	label := a.Description
	if label == "" {
		label = a.Selector
	}

	switch a.Type {
	case ActionClick:
		if a.Selector == "" {
			return nil
		}
		c.console.Verbosef("click: %s", label)
		if err := page.Click(a.Selector, ClickTimeout); err != nil {
			return err
		}
		c.sleep(settleAfterClick)

	case ActionType:
		if a.Selector == "" || a.Text == "" {
			return nil
		}
		c.console.Verbosef("type: %s", label)
		return page.Fill(a.Selector, expandEnv(a.Text), FillTimeout)

	case ActionWait:
		if a.WaitMs <= 0 {
			return nil
		}
		c.console.Verbosef("wait %dms", a.WaitMs)
		c.sleep(time.Duration(a.WaitMs) * time.Millisecond)

	case ActionNavigate:
		if a.URL == "" {
			return nil
		}
		if err := browser.ValidateURL(a.URL); err != nil {
			return err
		}
		c.console.Verbosef("navigate: %s", a.URL)
		return page.Goto(a.URL, browser.WaitNetworkIdle, NavigationTimeout)

	case ActionDownload:
		if a.Selector == "" {
			return nil
		}
		c.console.Verbosef("download: %s", label)
		return c.download(page, pageName, a.Selector)

	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

// download clicks selector, saves the file under downloads/ and records it.
func (c *Collector) download(page browser.Page, pageName, selector string) error {
	dl, err := page.Download(selector, DownloadTimeout)
	if err != nil {
		return err
	}

	name := downloadName(pageName, dl.SuggestedFilename())
	path := c.store.Path(artifact.DirDownloads, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create downloads directory: %w", err)
	}
	if err := dl.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save download: %w", err)
	}

	rec := DownloadRecord{Page: pageName, File: name}
	if fi, err := os.Stat(path); err == nil {
		rec.Bytes = fi.Size()
	}
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		pages, err := inspectPDF(path)
		if err != nil {
			c.console.Warningf("downloaded PDF %s did not validate: %v", name, err)
			c.log.Warnf("pdf validation of %s failed: %v", name, err)
		} else {
			rec.PDFPages = pages
		}
	}
	c.meta.Downloads = append(c.meta.Downloads, rec)
	c.console.Successf("Downloaded %s (%d bytes)", name, rec.Bytes)
	return nil
}

// downloadName keeps the suggested extension and prefixes the page name.
func downloadName(pageName, suggested string) string {
	ext := strings.ToLower(filepath.Ext(suggested))
	base := strings.TrimSuffix(suggested, filepath.Ext(suggested))
	if base == "" {
		base = "download"
	}
	safeExt := artifact.SafeFileName(strings.TrimPrefix(ext, "."))
	if ext == "" || strings.HasPrefix(safeExt, "unnamed-") {
		return artifact.SafeFileName(pageName + "-" + base)
	}
	return artifact.SafeFileName(pageName+"-"+base) + "." + safeExt
}

// inspectPDF validates a PDF file and returns its page count.
func inspectPDF(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx.PageCount, nil
}
