// Package process turns a collected materials directory into structured
// output for the analysis environment: parsed snapshots as JSON, recordings
// as reusable modules and screenshots under safe names.
//
// Each run writes to <materials>/processed/<timestamp>/ and never modifies
// the collected files.
package process

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/entrhq/materials/pkg/artifact"
	"github.com/entrhq/materials/pkg/logging"
	"github.com/entrhq/materials/pkg/redact"
	"github.com/entrhq/materials/pkg/snapshot"
)

// Default file selection patterns, matched against lower-cased base names.
const (
	DefaultSnapshotPattern   = "*.txt"
	DefaultRecordingPattern  = "*.{ts,js}"
	DefaultScreenshotPattern = "*.{png,jpg,jpeg,gif,webp,bmp,svg}"
)

// Output layout below the processed directory.
const (
	DirProcessed   = "processed"
	ResultFileName = "processing-result.json"
	ariaFileName   = "aria.json"
)

// Options configures a processing run.
type Options struct {
	MaterialsDir string
	ToolVersion  string

	SnapshotPattern   string
	RecordingPattern  string
	ScreenshotPattern string

	Clock    *artifact.Clock
	Logger   *logging.Logger
	Redactor *redact.Engine
}

// Snapshot is a parsed snapshot file.
type Snapshot struct {
	SourceFile string `json:"sourceFile"`
	*snapshot.Parsed
}

// Recording is a converted recording.
type Recording struct {
	SourceFile  string `json:"sourceFile"`
	OutputFile  string `json:"outputFile"`
	Description string `json:"description"`
	ConvertedAt string `json:"convertedAt"`
	Redactions  int    `json:"redactions"`
}

// ErrorEntry is a per-file failure. Processing continues past it.
type ErrorEntry struct {
	File      string `json:"file"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Result is written to processing-result.json.
type Result struct {
	ProcessedAt   string       `json:"processedAt"`
	Timezone      string       `json:"timezone"`
	ToolVersion   string       `json:"toolVersion"`
	Platform      string       `json:"platform"`
	GoVersion     string       `json:"goVersion"`
	OutputDir     string       `json:"outputDir"`
	AriaSnapshots []Snapshot   `json:"ariaSnapshots"`
	Recordings    []Recording  `json:"recordings"`
	Screenshots   []string     `json:"screenshots"`
	Errors        []ErrorEntry `json:"errors"`
}

type processor struct {
	opts   Options
	src    string
	out    *artifact.Store
	clock  *artifact.Clock
	logger *logging.Logger
	result *Result
}

// Run processes opts.MaterialsDir. A missing input subdirectory is logged
// and skipped; only failures to create the output or write the result are
// returned as errors.
func Run(opts Options) (*Result, error) {
	src, err := filepath.Abs(opts.MaterialsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve materials directory: %w", err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("materials directory not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("materials path %s is not a directory", src)
	}

	clock := opts.Clock
	if clock == nil {
		if clock, err = artifact.NewClock(""); err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.Redactor == nil {
		opts.Redactor = redact.New()
	}

	p := &processor{
		opts:   opts,
		src:    src,
		out:    artifact.NewStore(filepath.Join(src, DirProcessed, clock.FileStamp())),
		clock:  clock,
		logger: logger,
		result: &Result{
			Timezone:      clock.Zone(),
			ToolVersion:   opts.ToolVersion,
			Platform:      runtime.GOOS + "-" + runtime.GOARCH,
			GoVersion:     runtime.Version(),
			AriaSnapshots: []Snapshot{},
			Recordings:    []Recording{},
			Screenshots:   []string{},
			Errors:        []ErrorEntry{},
		},
	}
	p.result.OutputDir = p.out.Root()

	for _, sub := range []string{"aria", artifact.DirRecordings, artifact.DirScreenshots} {
		if err := os.MkdirAll(p.out.Path(sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	logger.Infow("processing materials", "source", src, "output", p.out.Root())

	steps := []struct {
		dir, pattern, fallback string
		each                   func(name string) error
	}{
		{artifact.DirSnapshots, opts.SnapshotPattern, DefaultSnapshotPattern, p.parseSnapshot},
		{artifact.DirRecordings, opts.RecordingPattern, DefaultRecordingPattern, p.convertRecording},
		{artifact.DirScreenshots, opts.ScreenshotPattern, DefaultScreenshotPattern, p.copyScreenshot},
	}
	for _, s := range steps {
		files, err := p.list(s.dir, s.pattern, s.fallback)
		if err != nil {
			return nil, err
		}
		for _, name := range files {
			if err := s.each(name); err != nil {
				p.fail(name, err)
			}
		}
		if s.dir == artifact.DirSnapshots && files != nil {
			if err := p.out.WriteJSON(filepath.Join("aria", ariaFileName), p.result.AriaSnapshots); err != nil {
				return nil, err
			}
		}
	}

	if err := p.copyMetadata(); err != nil {
		p.fail("metadata.json", err)
	}

	p.result.ProcessedAt = clock.ISO()
	if err := p.out.WriteJSON(ResultFileName, p.result); err != nil {
		return nil, err
	}
	logger.Infow("processing finished",
		"snapshots", len(p.result.AriaSnapshots),
		"recordings", len(p.result.Recordings),
		"screenshots", len(p.result.Screenshots),
		"errors", len(p.result.Errors))
	return p.result, nil
}

// list returns the sorted names in dir matching pattern. It returns nil
// without an error when dir does not exist.
func (p *processor) list(dir, pattern, fallback string) ([]string, error) {
	if pattern == "" {
		pattern = fallback
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}

	entries, err := os.ReadDir(filepath.Join(p.src, dir))
	if errors.Is(err, fs.ErrNotExist) {
		p.logger.Warnf("no %s directory in %s", dir, p.src)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	files := []string{}
	for _, e := range entries {
		if e.IsDir() || !g.Match(strings.ToLower(e.Name())) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	p.logger.Infof("found %d files in %s", len(files), dir)
	return files, nil
}

func (p *processor) fail(file string, err error) {
	p.logger.Errorf("failed to process %s: %v", file, err)
	p.result.Errors = append(p.result.Errors, ErrorEntry{
		File:      file,
		Error:     err.Error(),
		Timestamp: p.clock.ISO(),
	})
}

func (p *processor) parseSnapshot(name string) error {
	data, err := os.ReadFile(filepath.Join(p.src, artifact.DirSnapshots, name))
	if err != nil {
		return err
	}
	parsed := snapshot.Parse(string(data))
	p.result.AriaSnapshots = append(p.result.AriaSnapshots, Snapshot{SourceFile: name, Parsed: parsed})
	p.logger.Infow("parsed snapshot", "file", name, "url", parsed.URL,
		"links", len(parsed.Links), "tables", len(parsed.Tables), "formFields", len(parsed.FormFields))
	return nil
}

func (p *processor) convertRecording(name string) error {
	data, err := os.ReadFile(filepath.Join(p.src, artifact.DirRecordings, name))
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	at := p.clock.ISO()
	module, n := Convert(string(data), base, at, p.opts.Redactor)

	out := artifact.SafeFileName(base) + ".ts"
	if err := p.out.WriteFile(filepath.Join(artifact.DirRecordings, out), []byte(module)); err != nil {
		return err
	}
	p.result.Recordings = append(p.result.Recordings, Recording{
		SourceFile:  name,
		OutputFile:  out,
		Description: "Converted from codegen recording: " + base,
		ConvertedAt: at,
		Redactions:  n,
	})
	p.logger.Infof("converted recording %s -> %s", name, out)
	return nil
}

func (p *processor) copyScreenshot(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	safe := artifact.SafeFileName(strings.TrimSuffix(name, filepath.Ext(name))) + ext
	if err := copyFile(filepath.Join(p.src, artifact.DirScreenshots, name), p.out.Path(artifact.DirScreenshots, safe)); err != nil {
		return err
	}
	p.result.Screenshots = append(p.result.Screenshots, safe)
	return nil
}

func (p *processor) copyMetadata() error {
	src := filepath.Join(p.src, "metadata.json")
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := copyFile(src, p.out.Path("metadata.json")); err != nil {
		return err
	}
	p.logger.Infof("copied metadata.json")
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
