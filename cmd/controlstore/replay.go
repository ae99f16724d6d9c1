package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/controlstore/internal/errors"
	"github.com/vango-dev/controlstore/pkg/scenario"
	"github.com/vango-dev/controlstore/pkg/store"
)

type replayFlags struct {
	json   bool
	strict bool
}

func replayCmd(global *globalFlags) *cobra.Command {
	flags := &replayFlags{}

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>...",
		Short: "Replay scenario files against a fresh store",
		Long: `Replay one or more scenario files.

Each scenario creates a new controllable store, runs its steps in order
and checks its expect steps. Diagnostics reported along the way are
printed after each scenario.

Examples:
  controlstore replay testdata/dialog.yaml
  controlstore replay --strict scenarios/*.yaml
  controlstore replay --json dialog.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), cmd.OutOrStdout(), global, flags, args)
		},
	}

	cmd.Flags().BoolVar(&flags.json, "json", false, "Print results as JSON lines")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Fail when a scenario reports any diagnostic")

	return cmd
}

// replayReport is the --json output for one scenario.
type replayReport struct {
	Scenario    string          `json:"scenario"`
	File        string          `json:"file"`
	Steps       int             `json:"steps"`
	Passed      bool            `json:"passed"`
	Error       string          `json:"error,omitempty"`
	Diagnostics []diagnosticOut `json:"diagnostics"`
}

type diagnosticOut struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

func runReplay(ctx context.Context, out io.Writer, global *globalFlags, flags *replayFlags, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	st := newStack(cfg)

	failed := 0
	for _, file := range files {
		sc, err := scenario.ParseFile(file)
		if err != nil {
			return err
		}

		res, runErr := scenario.Run(ctx, sc,
			scenario.WithStoreOptions(st.storeOptions()...),
			scenario.WithReporter(st.reporter(nil)),
			scenario.WithTracer(st.tracer),
		)

		passed := runErr == nil && !(flags.strict && len(res.Diagnostics) > 0)
		if !passed {
			failed++
		}

		if flags.json {
			if err := writeReport(out, sc, res, runErr, passed); err != nil {
				return err
			}
			continue
		}
		printResult(out, sc, res, runErr, passed)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(files))
	}
	return nil
}

func scenarioName(sc *scenario.Scenario) string {
	if sc.Name != "" {
		return sc.Name
	}
	return sc.File
}

func printResult(out io.Writer, sc *scenario.Scenario, res *scenario.Result, runErr error, passed bool) {
	name := scenarioName(sc)
	switch {
	case passed:
		fmt.Fprintf(out, "\033[32m✓\033[0m %s (%d steps)\n", name, res.Steps)
	default:
		fmt.Fprintf(out, "\033[31m✗\033[0m %s (%d of %d steps)\n", name, res.Steps, len(sc.Steps))
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintf(out, "    %s %-5s %s\n", d.Code, d.Level, d.Message)
	}
	if runErr != nil {
		errors.Fprint(out, runErr)
	}
}

func writeReport(out io.Writer, sc *scenario.Scenario, res *scenario.Result, runErr error, passed bool) error {
	report := replayReport{
		Scenario:    scenarioName(sc),
		File:        sc.File,
		Steps:       res.Steps,
		Passed:      passed,
		Diagnostics: diagnosticsOut(res.Diagnostics),
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	return json.NewEncoder(out).Encode(report)
}

func diagnosticsOut(diags []store.Diagnostic) []diagnosticOut {
	out := make([]diagnosticOut, 0, len(diags))
	for _, d := range diags {
		out = append(out, diagnosticOut{
			Code:    d.Code,
			Level:   d.Level.String(),
			Key:     d.Key,
			Message: d.Message,
		})
	}
	return out
}
