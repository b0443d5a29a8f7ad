package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/entrhq/materials/pkg/artifact"
	"github.com/entrhq/materials/pkg/collector"
	"github.com/entrhq/materials/pkg/process"
	"github.com/entrhq/materials/pkg/redact"
	"github.com/entrhq/materials/pkg/ui"
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize <file>...",
	Short: "Replace credential literals in recorded scripts",
	Long: `Rewrite each recorded script in place, replacing typed credential literals
with environment placeholders. With --print the result is written to stdout
instead and the file is left alone.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSanitize,
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Turn collected materials into structured output",
	Long: `Parse accessibility snapshots into JSON, convert recordings into reusable
run(page) modules and copy screenshots under safe names. Output goes to
<materials>/processed/<timestamp>/.`,
	Args: cobra.NoArgs,
	RunE: runProcess,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previous runs recorded in the output directory",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "materials v%s (%s, %s/%s)\n", collector.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

var (
	sanitizePrint      bool
	processMaterials   string
	processScreenshots string
	processRecordings  string
	historyLimit       int
	historyRun         string
)

func init() {
	sanitizeCmd.Flags().BoolVar(&sanitizePrint, "print", false, "Print the highlighted result instead of rewriting the file")

	processCmd.Flags().StringVar(&processMaterials, "materials", "", "Materials directory (default: the output directory)")
	processCmd.Flags().StringVar(&processScreenshots, "screenshots", process.DefaultScreenshotPattern, "Pattern selecting screenshots to copy")
	processCmd.Flags().StringVar(&processRecordings, "recordings", process.DefaultRecordingPattern, "Pattern selecting recordings to convert")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "List the pages of one run (id or id prefix)")
}

func runSanitize(cmd *cobra.Command, args []string) error {
	engine := redact.New()
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		out, n := engine.SanitizeCount(string(data))
		logger.Infow("sanitized script", "file", path, "redactions", n)

		if sanitizePrint {
			if err := ui.Highlight(cmd.OutOrStdout(), out, "javascript"); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			continue
		}
		if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		console.Successf("%s: %d literals replaced", path, n)
	}
	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	dir := processMaterials
	if dir == "" {
		dir = cfg.OutputDir
	}
	clock, err := artifact.NewClock(cfg.Timezone)
	if err != nil {
		return err
	}

	console.Header("Processing " + dir)
	res, err := process.Run(process.Options{
		MaterialsDir:      dir,
		ToolVersion:       collector.Version,
		RecordingPattern:  processRecordings,
		ScreenshotPattern: processScreenshots,
		Clock:             clock,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	console.Successf("Snapshots parsed:     %d", len(res.AriaSnapshots))
	console.Successf("Recordings converted: %d", len(res.Recordings))
	console.Successf("Screenshots copied:   %d", len(res.Screenshots))
	for _, e := range res.Errors {
		console.Errorf("%s: %s", e.File, e.Error)
	}
	console.Infof("Output: %s", res.OutputDir)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	path := filepath.Join(cfg.OutputDir, artifact.IndexFileName)
	if _, err := os.Stat(path); err != nil {
		console.Infof("No runs recorded in %s", cfg.OutputDir)
		return nil
	}

	idx, err := artifact.OpenIndex(path)
	if err != nil {
		return err
	}
	defer idx.Close()

	runs, err := idx.Runs(historyLimit)
	if err != nil {
		return err
	}
	if historyRun != "" {
		return printRunPages(cmd, idx, runs, historyRun)
	}
	if len(runs) == 0 {
		console.Infof("No runs recorded in %s", cfg.OutputDir)
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			r.StartedAt,
			r.Project,
			r.Mode,
			fmt.Sprintf("%d/%d", r.Collected, r.TotalPages),
			strconv.Itoa(r.Recordings),
			strconv.Itoa(r.Errors),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.Table([]string{"Run", "Started", "Project", "Mode", "Pages", "Recordings", "Errors"}, rows))
	return nil
}

func printRunPages(cmd *cobra.Command, idx *artifact.Index, runs []artifact.RunRow, id string) error {
	for _, r := range runs {
		if r.ID != id && shortID(r.ID) != id {
			continue
		}
		pages, err := idx.Pages(r.ID)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(pages))
		for _, p := range pages {
			rows = append(rows, []string{p.Name, p.URL, p.Snapshot, p.Screenshot, strconv.Itoa(p.Iframes)})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Table([]string{"Name", "URL", "Snapshot", "Screenshot", "iframes"}, rows))
		return nil
	}
	return fmt.Errorf("run %s not found in the last %d runs", id, len(runs))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
