package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/scenekit/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Filter    string
	GoldenDir string
	Update    bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario-file|dir>",
		Short: "Run editing scenarios",
		Long: `Run YAML editing scenarios against a fresh editor and check their
assertions.

Each scenario replays its steps (create, update, remove, undo, redo,
select, export) through the editing session, then evaluates assertions on
the resulting document, render nodes and history. With --golden-dir the
exported document of every scenario is compared with <name>.golden.

Example:
  scenekit run ./scenarios
  scenekit run --filter 'robot_*' ./scenarios
  scenekit run --golden-dir ./golden --update ./scenarios`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenario files whose name matches this glob")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "compare exports with golden files in this directory")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files instead of comparing")

	return cmd
}

func runScenarios(opts *RunOptions, target string, cmd *cobra.Command) error {
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if opts.Update && opts.GoldenDir == "" {
		return e.out.Fail(ExitCommandError, ErrCodeGeneric, "--update requires --golden-dir", nil)
	}
	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return e.out.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("invalid filter %q", opts.Filter), err)
		}
	}

	paths, err := scenarioPaths(target, opts.Filter)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return e.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenario path not found: %s", target), nil)
		}
		return e.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to find scenarios", err)
	}
	if len(paths) == 0 {
		return e.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no scenarios in %s", target), nil)
	}
	e.out.VerboseLog("running %d scenario(s)", len(paths))

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			e.logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	suite := &harness.SuiteResult{}
	for _, path := range paths {
		errs, name := runScenario(ctx, e, opts, path)
		suite.Total++
		if len(errs) == 0 {
			suite.Passed++
			if !e.out.IsJSON() {
				fmt.Fprintf(e.out.Writer, "✓ %s\n", name)
			}
			continue
		}
		suite.Failed++
		suite.Failures = append(suite.Failures, harness.ScenarioFailure{Scenario: name, Path: path, Errors: errs})
		if !e.out.IsJSON() {
			fmt.Fprintf(e.out.Writer, "✗ %s\n", name)
			for _, msg := range errs {
				fmt.Fprintf(e.out.Writer, "    %s\n", strings.ReplaceAll(msg, "\n", "\n    "))
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	if e.out.IsJSON() {
		if err := e.out.Success(suite, ""); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(e.out.Writer, "\n%d passed, %d failed\n", suite.Passed, suite.Failed)
	}

	if suite.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", suite.Failed))
	}
	return nil
}

// runScenario loads and runs one scenario file. The returned name falls back
// to the file path when the scenario cannot be loaded.
func runScenario(ctx context.Context, e *env, opts *RunOptions, path string) ([]string, string) {
	sc, err := harness.LoadScenario(path)
	if err != nil {
		return []string{fmt.Sprintf("[%s] failed to load scenario: %v", ErrCodeScenario, err)}, path
	}
	res, err := harness.Run(ctx, sc, harness.WithLogger(e.logger))
	if err != nil {
		return []string{fmt.Sprintf("[%s] %v", ErrCodeScenario, err)}, sc.Name
	}
	errs := res.Errors
	if opts.GoldenDir != "" {
		if msg := checkGolden(opts, sc.Name, res.Export); msg != "" {
			errs = append(errs, msg)
		}
	}
	return errs, sc.Name
}

// checkGolden compares export with <dir>/<name>.golden, or rewrites it with
// --update. It returns an empty string on success.
func checkGolden(opts *RunOptions, name string, export []byte) string {
	path := filepath.Join(opts.GoldenDir, name+".golden")
	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0o755); err != nil {
			return fmt.Sprintf("golden: %v", err)
		}
		if err := os.WriteFile(path, export, 0o644); err != nil {
			return fmt.Sprintf("golden: %v", err)
		}
		return ""
	}
	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("golden: %v (run with --update to create it)", err)
	}
	if !bytes.Equal(want, export) {
		return fmt.Sprintf("golden: export differs from %s", path)
	}
	return ""
}

// scenarioPaths expands target into scenario files, keeping those whose base
// name matches filter.
func scenarioPaths(target, filter string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	paths := []string{target}
	if info.IsDir() {
		if paths, err = harness.FindScenarios(target); err != nil {
			return nil, err
		}
	}
	if filter == "" {
		return paths, nil
	}
	var out []string
	for _, p := range paths {
		if ok, _ := filepath.Match(filter, filepath.Base(p)); ok {
			out = append(out, p)
		}
	}
	return out, nil
}
