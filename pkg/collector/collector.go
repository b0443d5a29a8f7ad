// Package collector runs capture sessions against a browser the user has
// already opened and logged in to. A session walks configured pages (or
// follows the user interactively), writes the artifacts of every page and
// always finishes by writing metadata, a summary report and a history row.
package collector

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/entrhq/materials/pkg/artifact"
	"github.com/entrhq/materials/pkg/browser"
	"github.com/entrhq/materials/pkg/logging"
)

// Version is reported in metadata and reports.
const Version = "1.0.0"

// Run modes.
const (
	ModeAuto        = "auto"
	ModeInteractive = "interactive"
	ModeSnapshot    = "snapshot"
	ModeRecord      = "record"
)

const (
	// NavigationTimeout bounds page.goto for configured pages and navigate actions.
	NavigationTimeout = 30 * time.Second
	// ScreenshotTimeout bounds each screenshot attempt.
	ScreenshotTimeout = 30 * time.Second
	// MaxInteractivePages ends an interactive session.
	MaxInteractivePages = 100

	settleAfterNavigation = 2 * time.Second
)

// Prompter asks the user a question and returns the trimmed answer.
type Prompter interface {
	Ask(prompt string) (string, error)
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the run logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Collector) { c.log = l }
}

// WithConsole sets the console used for progress output.
func WithConsole(con *Console) Option {
	return func(c *Collector) { c.console = con }
}

// WithPrompter enables questions to the user.
func WithPrompter(p Prompter) Option {
	return func(c *Collector) { c.prompter = p }
}

// WithRecorder sets the codegen recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Collector) { c.recorder = r }
}

// WithSleep replaces time.Sleep for settle delays and wait actions.
func WithSleep(fn func(time.Duration)) Option {
	return func(c *Collector) { c.sleep = fn }
}

// WithClock sets the clock used for timestamps.
func WithClock(clock *artifact.Clock) Option {
	return func(c *Collector) { c.clock = clock }
}

// Collector captures pages from an attached browser session.
type Collector struct {
	cfg     *Config
	session browser.Session
	store   *artifact.Store

	clock    *artifact.Clock
	log      *logging.Logger
	console  *Console
	prompter Prompter
	recorder Recorder
	sleep    func(time.Duration)

	shutdown atomic.Bool
	meta     *Metadata
}

// New creates a collector writing to cfg.OutputDir. The session is detached
// when a run finishes.
func New(cfg *Config, session browser.Session, opts ...Option) (*Collector, error) {
	if session == nil {
		return nil, browser.ErrNoSession
	}

	root, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}

	c := &Collector{
		cfg:      cfg,
		session:  session,
		store:    artifact.NewStore(root),
		log:      logging.Discard(),
		console:  NewConsole(nil, VerbosityNormal),
		recorder: &CodegenRecorder{},
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.clock == nil {
		if c.clock, err = artifact.NewClock(cfg.Timezone); err != nil {
			return nil, err
		}
	}

	c.meta = &Metadata{
		RunID:          logging.GetRunID(),
		ProjectName:    cfg.ProjectName,
		StartedAt:      c.clock.ISO(),
		Timezone:       c.clock.Zone(),
		ToolVersion:    Version,
		Platform:       platform(),
		GoVersion:      runtime.Version(),
		Driver:         cfg.Driver,
		LogFile:        c.log.LogPath(),
		CollectedPages: []PageRecord{},
		Recordings:     []RecordingRecord{},
		Errors:         []ErrorRecord{},
	}
	return c, nil
}

// RequestShutdown asks a running loop to stop before its next iteration.
// Finalization still runs.
func (c *Collector) RequestShutdown() {
	c.shutdown.Store(true)
}

// ShuttingDown reports whether RequestShutdown was called.
func (c *Collector) ShuttingDown() bool {
	return c.shutdown.Load()
}

// Metadata returns the run record. It is complete once a Collect method returns.
func (c *Collector) Metadata() *Metadata {
	return c.meta
}

// Store returns the artifact store of the run.
func (c *Collector) Store() *artifact.Store {
	return c.store
}

func (c *Collector) begin(mode, title string) error {
	c.meta.Mode = mode
	c.console.Section(title)
	if err := c.store.Init(); err != nil {
		return err
	}
	c.log.Infow("run started", "mode", mode, "output", c.store.Root(), "driver", c.cfg.Driver)
	c.console.Verbosef("Output directory: %s", c.store.Root())
	return nil
}

func (c *Collector) addError(page, msg string) {
	c.meta.Errors = append(c.meta.Errors, ErrorRecord{
		Page:      page,
		Error:     msg,
		Timestamp: c.clock.ISO(),
	})
}

// CollectAll visits every configured page in order, then records the
// configured interactive flows. It returns an error only when no page can
// be resolved; page-level failures become error records.
func (c *Collector) CollectAll() error {
	c.meta.TotalPages = len(c.cfg.Pages)
	if err := c.begin(ModeAuto, "Collecting configured pages"); err != nil {
		return err
	}
	defer c.finalize()

	total := len(c.cfg.Pages)
	for i := 0; i < total && !c.ShuttingDown(); i++ {
		target := c.cfg.Pages[i]
		c.console.Infof("[%d/%d] [%s] %s", i+1, total, progressBar(i+1, total, 20), describe(target))

		page, err := browser.ResolveActivePage(c.session, c.log)
		if err != nil {
			c.console.Errorf("%v", err)
			c.addError(target.Name, err.Error())
			return err
		}

		if target.URL != "" {
			c.navigate(page, target)
		}
		if len(target.Actions) > 0 {
			c.executeActions(page, target)
		}

		c.meta.CollectedPages = append(c.meta.CollectedPages, c.collectPage(page, target.Name, describe(target)))
	}

	if c.cfg.CollectOptions.CodegenRecording && len(c.cfg.InteractiveFlows) > 0 && !c.ShuttingDown() {
		c.console.Section("Recording interactive flows")
		for _, flow := range c.cfg.InteractiveFlows {
			if c.ShuttingDown() {
				break
			}
			c.recordFlow(flow)
		}
	}
	return nil
}

func (c *Collector) navigate(page browser.Page, target PageTarget) {
	if err := browser.ValidateURL(target.URL); err != nil {
		c.console.Warningf("skipping navigation for %s: %v", target.Name, err)
		c.log.Warnf("invalid url for page %s: %v", target.Name, err)
		c.addError(target.Name, "Invalid URL: "+err.Error())
		return
	}

	wait, ok := browser.ParseWaitUntil(target.WaitFor)
	if !ok {
		wait = browser.WaitNetworkIdle
	}
	if err := page.Goto(target.URL, wait, NavigationTimeout); err != nil {
		c.console.Warningf("navigation failed: %v; capturing what is loaded", err)
		c.log.Warnf("navigation to %s failed: %v", target.URL, err)
		return
	}
	c.sleep(settleAfterNavigation)
}

// CollectInteractive captures the page the user has open, asks what to do
// next and repeats until the user quits or MaxInteractivePages is reached.
func (c *Collector) CollectInteractive() error {
	if c.prompter == nil {
		return errors.New("interactive mode needs a terminal prompt")
	}
	if err := c.begin(ModeInteractive, "Interactive collection"); err != nil {
		return err
	}
	defer c.finalize()

	c.console.Printf("Operate the page in Chrome, then come back here to capture it.")

	for index := 1; index <= MaxInteractivePages && !c.ShuttingDown(); {
		c.console.Step(fmt.Sprintf("Page %d", index))

		page, err := browser.ResolveActivePage(c.session, c.log)
		if err != nil {
			c.console.Errorf("%v", err)
			return err
		}
		currentURL := browser.ResolvePageURL(page, c.log)
		currentTitle := browser.ResolvePageTitle(page, c.log)
		c.console.Infof("Current page: %s", currentTitle)
		c.console.Infof("URL: %s", currentURL)

		name, err := c.prompter.Ask("Page name (e.g. 01-login-page): ")
		if err != nil {
			return nil
		}
		if name == "" {
			c.console.Warningf("the name cannot be empty")
			continue
		}
		description, err := c.prompter.Ask("Page description: ")
		if err != nil {
			return nil
		}
		if description == "" {
			description = name
		}

		c.meta.CollectedPages = append(c.meta.CollectedPages, c.collectPage(page, name, description))
		c.meta.TotalPages = len(c.meta.CollectedPages)
		index++

		next, err := c.prompter.Ask("[Enter] next page  [r] record a flow  [q] quit: ")
		if err != nil {
			return nil
		}
		switch strings.ToLower(next) {
		case "q":
			return nil
		case "r":
			if quit := c.interactiveRecording(index, currentURL); quit {
				return nil
			}
		}
	}
	return nil
}

// interactiveRecording asks for a flow, records it and shows the
// post-recording menu. It reports whether the user chose to quit.
func (c *Collector) interactiveRecording(index int, currentURL string) bool {
	flow := InteractiveFlow{Name: fmt.Sprintf("recording-%d", index), StartURL: currentURL, Instructions: "Operate the flow in the browser"}
	if v, err := c.prompter.Ask("Recording name: "); err == nil && v != "" {
		flow.Name = v
	}
	if v, err := c.prompter.Ask("Start URL (Enter for the current page): "); err == nil && v != "" {
		flow.StartURL = v
	}
	if v, err := c.prompter.Ask("Instructions: "); err == nil && v != "" {
		flow.Instructions = v
		flow.Description = v
	}

	if c.recordFlow(flow) == nil {
		return false
	}

	post, err := c.prompter.Ask("Close the codegen window first. [Enter] next page  [r] record again  [a] capture accessibility snapshot  [q] quit: ")
	if err != nil {
		return true
	}
	switch strings.ToLower(post) {
	case "q":
		return true
	case "r":
		c.recordFlow(flow)
	case "a":
		c.capturePostRecording(flow.Name)
	}
	return false
}

func (c *Collector) capturePostRecording(flowName string) {
	if !c.cfg.CollectOptions.AriaSnapshot {
		c.console.Warningf("accessibility snapshots are disabled for this run")
		return
	}
	page, err := browser.ResolveActivePage(c.session, c.log)
	if err != nil {
		c.console.Errorf("post-recording snapshot failed: %v", err)
		return
	}
	name := artifact.SafeFileName(flowName) + "-post-aria"
	if _, err := c.captureSnapshot(page, name, "Post-recording snapshot: "+flowName); err != nil {
		c.console.Errorf("post-recording snapshot failed: %v", err)
		c.addError(name, "ARIA snapshot failed: "+err.Error())
	}
}

// CollectSnapshot captures the active page once. An empty name becomes
// snapshot-<unix millis>; an empty description becomes the page title.
func (c *Collector) CollectSnapshot(name, description string) (*PageRecord, error) {
	if err := c.begin(ModeSnapshot, "Quick snapshot"); err != nil {
		return nil, err
	}
	defer c.finalize()

	page, err := browser.ResolveActivePage(c.session, c.log)
	if err != nil {
		c.console.Errorf("%v", err)
		return nil, err
	}
	title := browser.ResolvePageTitle(page, c.log)
	c.console.Infof("Current page: %s", title)

	if name == "" && c.prompter != nil {
		name, _ = c.prompter.Ask("Page name (Enter for an automatic name): ")
	}
	if name == "" {
		name = fmt.Sprintf("snapshot-%d", c.clock.Now().UnixMilli())
	}
	if description == "" {
		description = title
	}
	if description == "" {
		description = name
	}

	rec := c.collectPage(page, name, description)
	c.meta.CollectedPages = append(c.meta.CollectedPages, rec)
	c.meta.TotalPages = 1
	return &rec, nil
}

// Record records a single flow with codegen outside of a page run.
func (c *Collector) Record(flow InteractiveFlow) (*RecordingRecord, error) {
	if err := c.begin(ModeRecord, "Recording "+flow.Name); err != nil {
		return nil, err
	}
	defer c.finalize()

	rec := c.recordFlow(flow)
	if rec == nil && len(c.meta.Errors) > 0 {
		return nil, errors.New(c.meta.Errors[len(c.meta.Errors)-1].Error)
	}
	return rec, nil
}

// finalize writes the run record and detaches from the browser. Each step
// runs even when an earlier one fails.
func (c *Collector) finalize() {
	c.meta.CollectedAt = c.clock.ISO()

	if err := c.store.WriteJSON(MetadataFileName, c.meta); err != nil {
		c.console.Errorf("failed to save metadata: %v", err)
		c.log.Errorf("failed to save metadata: %v", err)
	} else {
		c.console.Verbosef("Metadata saved: %s", c.store.Path(MetadataFileName))
	}

	if err := c.store.WriteFile(ReportFileName, []byte(c.renderReport())); err != nil {
		c.console.Errorf("failed to write summary report: %v", err)
		c.log.Errorf("failed to write summary report: %v", err)
	} else {
		c.console.Verbosef("Summary report saved: %s", c.store.Path(ReportFileName))
	}

	if err := c.recordHistory(); err != nil {
		c.console.Warningf("run history not updated: %v", err)
		c.log.Warnf("run history not updated: %v", err)
	}

	if err := c.session.Detach(); err != nil {
		c.log.Warnf("detach failed: %v", err)
	}

	c.log.Infow("run finished",
		"pages", len(c.meta.CollectedPages),
		"recordings", len(c.meta.Recordings),
		"errors", len(c.meta.Errors))
	c.console.Summary(c.store.Root(), c.meta)
}

func (c *Collector) recordHistory() error {
	idx, err := artifact.OpenIndex(c.store.Path(artifact.IndexFileName))
	if err != nil {
		return err
	}
	defer idx.Close()

	run := artifact.RunRow{
		ID:         c.meta.RunID,
		Project:    c.meta.ProjectName,
		Mode:       c.meta.Mode,
		StartedAt:  c.meta.StartedAt,
		FinishedAt: c.meta.CollectedAt,
		OutputDir:  c.store.Root(),
		TotalPages: c.meta.TotalPages,
		Collected:  len(c.meta.CollectedPages),
		Recordings: len(c.meta.Recordings),
		Errors:     len(c.meta.Errors),
	}
	for _, p := range c.meta.CollectedPages {
		run.Pages = append(run.Pages, artifact.PageRow{
			Name:       p.Name,
			URL:        p.URL,
			Snapshot:   p.Files.AriaSnapshot,
			Screenshot: p.Files.Screenshot,
			Iframes:    p.IframeCount,
		})
	}
	return idx.RecordRun(run)
}

func describe(t PageTarget) string {
	if t.Description != "" {
		return t.Description
	}
	return t.Name
}

func progressBar(done, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := (done*width + total/2) / total
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
