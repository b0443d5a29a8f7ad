package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/entrhq/materials/pkg/artifact"
	"github.com/entrhq/materials/pkg/collector"
	"github.com/entrhq/materials/pkg/ui"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Capture every page listed in the configuration",
	Long: `Capture the pages listed in the configuration file in order. Each page is
opened in the active tab, its actions are run and its materials saved. After
the pages, each interactive flow is recorded with codegen when
codegenRecording is enabled.`,
	Args: cobra.NoArgs,
	RunE: runCollect,
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Capture pages as you navigate to them",
	Long: `Capture whatever page is active, one page per step. Navigate in Chrome,
name the page, and choose whether to continue, record a flow or quit.`,
	Args: cobra.NoArgs,
	RunE: runInteractive,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture the active page once",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

var recordCmd = &cobra.Command{
	Use:   "record <name> <url>",
	Short: "Record a flow with codegen",
	Long: `Open a codegen window at url and save the recorded script as
recordings/<name>.ts with credential literals replaced by environment
placeholders. Does not need a debugging browser.`,
	Args: cobra.ExactArgs(2),
	RunE: runRecord,
}

var (
	snapshotName        string
	snapshotDescription string
	snapshotCopy        bool
	recordInstructions  string
)

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotName, "name", "n", "", "Page name (prompted when empty)")
	snapshotCmd.Flags().StringVarP(&snapshotDescription, "description", "d", "", "Page description (default: page title)")
	snapshotCmd.Flags().BoolVar(&snapshotCopy, "copy", false, "Copy the snapshot text to the clipboard")

	recordCmd.Flags().StringVar(&recordInstructions, "instructions", "", "Instructions shown before recording starts")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	console.Header("Materials collection: " + cfg.ProjectName)

	c, err := newCollector(cfg, newPrompter())
	if err != nil {
		return err
	}
	stop := watchSignals(c)
	defer stop()
	return c.CollectAll()
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	console.Header("Interactive collection: " + cfg.ProjectName)

	c, err := newCollector(cfg, newPrompter())
	if err != nil {
		return err
	}
	stop := watchSignals(c)
	defer stop()
	return c.CollectInteractive()
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}

	var prompter collector.Prompter
	if snapshotName == "" {
		prompter = newPrompter()
	}
	c, err := newCollector(cfg, prompter)
	if err != nil {
		return err
	}

	rec, err := c.CollectSnapshot(snapshotName, snapshotDescription)
	if err != nil {
		return err
	}
	if snapshotCopy {
		copySnapshot(c.Store(), rec)
	}
	return nil
}

func copySnapshot(store *artifact.Store, rec *collector.PageRecord) {
	if rec.Files.AriaSnapshot == "" {
		console.Warningf("no snapshot to copy")
		return
	}
	data, err := os.ReadFile(store.Path(artifact.DirSnapshots, rec.Files.AriaSnapshot))
	if err != nil {
		console.Warningf("failed to read snapshot: %v", err)
		return
	}
	if err := ui.CopyToClipboard(string(data)); err != nil {
		console.Warningf("clipboard unavailable: %v", err)
		logger.Warnf("clipboard copy failed: %v", err)
		return
	}
	console.Successf("Snapshot copied to the clipboard (%d bytes)", len(data))
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}

	c, err := buildCollector(cfg, detachedSession{}, nil)
	if err != nil {
		return err
	}
	rec, err := c.Record(collector.InteractiveFlow{
		Name:         args[0],
		StartURL:     args[1],
		Instructions: recordInstructions,
	})
	if err != nil {
		return fmt.Errorf("recording failed: %w", err)
	}
	if rec != nil {
		console.Infof("Recording: %s", filepath.Join(c.Store().Root(), artifact.DirRecordings, rec.File))
	}
	return nil
}
