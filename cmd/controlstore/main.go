package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/controlstore/internal/config"
	"github.com/vango-dev/controlstore/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configDir string
	verbose   bool
	noColor   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "controlstore",
		Short: "Replay, inspect and snapshot controllable stores",
		Long: `controlstore is a toolbox for controllable stores.

A controllable store holds state whose keys are owned either by the
store itself (uncontrolled) or by an external owner (controlled).
This tool replays scripted interactions against a store to reproduce
diagnostics, serves a live inspector, and saves snapshots.

  • replay    run scenario files and report diagnostics
  • serve     replay scenarios and inspect the resulting stores over HTTP
  • snapshot  replay a scenario and save the final state`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configDir, "config", "c", "", "Directory containing controlstore.json (default: search from the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug output")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		replayCmd(flags),
		serveCmd(flags),
		snapshotCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig loads controlstore.json and configures logging and colors.
// Without --config, the nearest controlstore.json above the working
// directory is used, or the defaults if there is none.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case flags.configDir != "":
		cfg, err = config.Load(flags.configDir)
	default:
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, wdErr
		}
		if root, findErr := config.FindProjectRoot(wd); findErr == nil {
			cfg, err = config.Load(root)
		} else {
			cfg = config.New()
		}
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if flags.noColor || !cfg.ColorEnabled() {
		errors.DisableColors()
	}

	level := parseLevel(cfg.Diagnostics.Level)
	if flags.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return cfg, nil
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return level
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
