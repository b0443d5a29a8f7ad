package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/entrhq/materials/pkg/browser"
	"github.com/entrhq/materials/pkg/collector"
	"github.com/entrhq/materials/pkg/ui"
)

// newPrompter is swapped in tests.
var newPrompter = func() collector.Prompter { return ui.NewPrompter() }

// loadConfig reads the configuration file and applies flag overrides. When
// required is false and no file was named, a missing default file yields
// DefaultConfig with the working directory's name as project.
func loadConfig(cmd *cobra.Command, required bool) (*collector.Config, error) {
	path := configPath
	explicit := path != ""
	if !explicit {
		path = collector.DefaultConfigFile
	}

	var cfg *collector.Config
	_, statErr := os.Stat(path)
	switch {
	case statErr == nil || explicit:
		var err error
		if cfg, err = collector.LoadConfig(path); err != nil {
			return nil, err
		}
	case required:
		return nil, fmt.Errorf("configuration file %s not found; create it or pass --config", path)
	default:
		cfg = collector.DefaultConfig()
		cfg.ProjectName = defaultProjectName()
	}

	flags := cmd.Flags()
	if flags.Changed("cdp-port") {
		cfg.CDPPort = cdpPort
	}
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("driver") {
		cfg.Driver = driver
	}
	if flags.Changed("verbosity") {
		cfg.Logging.Verbosity = verbosity
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := collector.ParseVerbosity(cfg.Logging.Verbosity)
	console = collector.NewConsole(cmd.OutOrStdout(), level)
	logger.Infow("configuration loaded", "file", cfg.ConfigFilePath, "config", cfg.RedactedForLog())
	return cfg, nil
}

func defaultProjectName() string {
	wd, err := os.Getwd()
	if err != nil {
		return "materials"
	}
	return filepath.Base(wd)
}

// newCollector attaches to the browser named by cfg. A nil prompter makes
// the collector non-interactive.
func newCollector(cfg *collector.Config, prompter collector.Prompter) (*collector.Collector, error) {
	console.Verbosef("Connecting to %s with %s", browser.Endpoint(cfg.CDPPort), cfg.Driver)
	session, err := connect(cfg.Driver, cfg.CDPPort)
	if err != nil {
		logger.Errorf("connect failed: %v", err)
		return nil, err
	}
	logger.Infow("attached to browser", "driver", cfg.Driver, "port", cfg.CDPPort)
	console.Successf("Connected to Chrome on port %d", cfg.CDPPort)
	return buildCollector(cfg, session, prompter)
}

func buildCollector(cfg *collector.Config, session browser.Session, prompter collector.Prompter) (*collector.Collector, error) {
	opts := []collector.Option{
		collector.WithLogger(logger),
		collector.WithConsole(console),
	}
	if prompter != nil {
		opts = append(opts, collector.WithPrompter(prompter))
	}
	c, err := collector.New(cfg, session, opts...)
	if err != nil {
		_ = session.Detach()
		return nil, err
	}
	return c, nil
}

// detachedSession stands in for a browser when a command drives its own,
// as codegen does.
type detachedSession struct{}

func (detachedSession) Contexts() []browser.Context { return nil }
func (detachedSession) Detach() error               { return nil }
