// Package main provides the materials command: it attaches to a Chrome the
// user already logged in with, captures page materials for offline
// automation work and post-processes them in the analysis environment.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/entrhq/materials/pkg/browser"
	"github.com/entrhq/materials/pkg/collector"
	"github.com/entrhq/materials/pkg/logging"
)

var (
	configPath string
	cdpPort    int
	outputDir  string
	driver     string
	verbosity  string

	logger  *logging.Logger
	console *collector.Console
)

// connect is swapped in tests.
var connect = browser.Connect

var rootCmd = &cobra.Command{
	Use:   "materials",
	Short: "Capture web page materials for offline automation work",
	Long: `materials attaches to a running Chrome over the DevTools protocol and
captures accessibility snapshots, screenshots and codegen recordings of
internal systems, with credentials removed from every recording.

Start Chrome with --remote-debugging-port, log in, then run one of the
capture commands. Take the output directory to the analysis environment and
run "materials process" there.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, ok := collector.ParseVerbosity(verbosity)
		if !ok {
			return fmt.Errorf("invalid verbosity %q (want quiet, normal, verbose or debug)", verbosity)
		}
		console = collector.NewConsole(cmd.OutOrStdout(), level)

		if loaded, err := collector.LoadDotEnv(collector.DotEnvFile); err != nil {
			console.Warningf("failed to load %s: %v", collector.DotEnvFile, err)
		} else if loaded {
			console.Debugf("loaded %s", collector.DotEnvFile)
		}

		if level < collector.VerbosityDebug {
			logging.SetLevel(zapcore.InfoLevel)
		}
		var err error
		logger, err = logging.NewLogger(cmd.Name())
		if err != nil {
			console.Warningf("%v", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (default ./"+collector.DefaultConfigFile+")")
	rootCmd.PersistentFlags().IntVar(&cdpPort, "cdp-port", collector.DefaultCDPPort, "Chrome remote debugging port")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "Output directory (default from config, else "+collector.DefaultOutputDir+")")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "Browser driver: playwright or rod")
	rootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "", "Console output: quiet, normal, verbose or debug (default from config, else normal)")

	rootCmd.AddCommand(collectCmd, interactiveCmd, snapshotCmd, recordCmd, sanitizeCmd, processCmd, historyCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ce *browser.ConnectError
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, ce.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// watchSignals asks c to stop after the current page on SIGINT or SIGTERM.
// The returned function stops watching.
func watchSignals(c *collector.Collector) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case <-sigChan:
			console.Warningf("interrupt received, saving what was collected")
			logger.Warnf("interrupt received, shutting down")
			c.RequestShutdown()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
