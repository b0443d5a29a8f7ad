package collector

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/entrhq/materials/pkg/artifact"
	"github.com/entrhq/materials/pkg/browser"
	"github.com/entrhq/materials/pkg/redact"
	"github.com/playwright-community/playwright-go"
)

// Recorder records a user-driven flow starting at url into outputFile.
type Recorder interface {
	Record(url, outputFile string) error
}

// CodegenRecorder runs the codegen command of the bundled Playwright
// driver. The command opens its own browser window and returns when the
// user closes it.
type CodegenRecorder struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Record implements Recorder.
func (r *CodegenRecorder) Record(url, outputFile string) error {
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	driver, err := playwright.NewDriver(opts)
	if err != nil {
		return fmt.Errorf("failed to locate playwright driver: %w", err)
	}

	cmd := driver.Command("codegen", "--target", "javascript", "--output", outputFile, url)
	cmd.Stdin = orDefault(r.Stdin, os.Stdin)
	cmd.Stdout = orDefaultWriter(r.Stdout, os.Stdout)
	cmd.Stderr = orDefaultWriter(r.Stderr, os.Stderr)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("codegen exited: %w", err)
	}
	return nil
}

func orDefault(r io.Reader, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orDefaultWriter(w io.Writer, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}

// recordFlow records flow with the configured recorder and redacts the
// result in place. It returns nil when the flow was skipped or failed;
// failures are recorded as errors of page "codegen:<name>".
func (c *Collector) recordFlow(flow InteractiveFlow) *RecordingRecord {
	c.console.Section("Recording: " + flow.Name)
	file := artifact.SafeFileName(flow.Name) + ".ts"
	out := c.store.Path(artifact.DirRecordings, file)

	c.console.Printf("  Instructions: %s", flow.Instructions)
	c.console.Printf("  Start URL:    %s", flow.StartURL)
	c.console.Printf("  A new browser window opens. Perform the flow there and close the window when done.")
	c.console.Printf("  The recording is saved to %s", out)

	if c.prompter != nil {
		answer, err := c.prompter.Ask("Press Enter to start recording (type skip to skip): ")
		if err != nil || strings.EqualFold(answer, "skip") {
			c.console.Infof("Recording skipped")
			return nil
		}
	}

	if err := browser.ValidateURL(flow.StartURL); err != nil {
		c.console.Errorf("%v", err)
		c.addError("codegen:"+flow.Name, "Invalid URL: "+err.Error())
		return nil
	}

	c.log.Infow("codegen started", "flow", flow.Name, "url", flow.StartURL, "output", out)
	if err := c.recorder.Record(flow.StartURL, out); err != nil {
		c.console.Errorf("recording failed: %v", err)
		c.addError("codegen:"+flow.Name, "Codegen failed: "+err.Error())
		return nil
	}

	redactions, err := sanitizeRecordingFile(out)
	if errors.Is(err, fs.ErrNotExist) {
		c.console.Warningf("codegen finished without writing %s", file)
		return nil
	}
	if err != nil {
		c.console.Errorf("recording could not be sanitized: %v", err)
		c.addError("codegen:"+flow.Name, "Sanitize failed: "+err.Error())
		return nil
	}
	c.console.Successf("Recorded %s (%d sensitive values replaced)", file, redactions)

	rec := RecordingRecord{
		Name:        flow.Name,
		Description: flow.Description,
		File:        file,
		RecordedAt:  c.clock.ISO(),
		Redactions:  redactions,
	}
	c.meta.Recordings = append(c.meta.Recordings, rec)
	return &rec
}

// sanitizeRecordingFile redacts the recording at path in place and returns
// the number of replaced literals.
func sanitizeRecordingFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	out, n := redact.New().SanitizeCount(string(data))
	if err := os.WriteFile(path, []byte(out), 0600); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return n, nil
}
