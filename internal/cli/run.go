package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/autotest/internal/harness"
	"github.com/roach88/autotest/internal/locate"
	"github.com/roach88/autotest/internal/report"
	"github.com/roach88/autotest/internal/suite"
)

// RunResult is the JSON payload of a per-case run.
type RunResult struct {
	Summary report.Summary   `json:"summary"`
	Results []harness.Result `json:"results"`
}

// BatchRunResult is the JSON payload of a batch run.
type BatchRunResult struct {
	Cases    int      `json:"cases"`
	ExitCode int      `json:"exit_code"`
	TimedOut bool     `json:"timed_out,omitempty"`
	Command  []string `json:"command"`
	Duration string   `json:"duration"`
}

func runAutotest(cmd *cobra.Command, opts *RootOptions, env Env, positional []string) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	lists, err := loadLists(opts.Lists)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load test lists", err)
	}

	args, err := suite.ExpandListArgs(positional, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read test list", err)
	}

	cases, err := suite.Select(lists, suite.Selection{
		Cases: args,
		Good:  opts.Good,
		Next:  opts.Next,
		Match: opts.Match,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to select tests", err)
	}
	logger.Debug("tests selected", "count", len(cases))

	if opts.DryRun {
		return outputDryRun(cmd, opts, cases)
	}

	if opts.Batch && opts.Update {
		return NewExitError(ExitCommandError, "--update cannot be combined with --batch")
	}

	if err := locate.CheckTree(opts.Root); err != nil {
		return WrapExitError(ExitCommandError, "cannot run tests", err)
	}

	executable, err := resolveExecutable(opts, env, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot run tests", err)
	}

	passThrough := opts.PassThrough
	if opts.Batch && opts.TeamCity {
		// The batch child emits the per-case markers itself.
		passThrough = append(passThrough, "--teamcity")
	}

	h, err := harness.New(harness.Config{
		Executable:  executable,
		Root:        opts.Root,
		Timeout:     opts.Timeout,
		PassThrough: passThrough,
		Update:      opts.Update,
		Logger:      logger,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid harness configuration", err)
	}

	ctx, stop := signalContext(cmd.Context(), logger)
	defer stop()

	if opts.Batch {
		return runBatch(ctx, cmd, opts, h, cases)
	}
	return runCases(ctx, cmd, opts, env, h, cases)
}

func runCases(ctx context.Context, cmd *cobra.Command, opts *RootOptions, env Env, h *harness.Harness, cases []string) error {
	out := cmd.OutOrStdout()
	runID := env.RunIDs.Generate()

	// CI markers go to stderr when stdout carries the JSON document.
	markers := out
	var reporters report.Multi
	if opts.Format == "json" {
		markers = cmd.ErrOrStderr()
	} else {
		reporters = append(reporters, report.NewText(out, report.TextOptions{
			Verbose: opts.Verbose,
			Color:   report.IsTerminal(out),
		}))
	}
	if opts.TeamCity {
		reporters = append(reporters, report.NewTeamCity(markers))
	}
	if opts.GitHub || env.Getenv("GITHUB_ACTIONS") == "true" {
		reporters = append(reporters, report.NewGitHub(markers))
	}

	reporters.Start(runID, cases)
	results := h.Run(ctx, cases, reporters)
	summary := report.Summarize(runID, results)
	if err := reporters.Finish(summary); err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}

	if opts.Format == "json" {
		if err := outputRunJSON(out, RunResult{Summary: summary, Results: results}); err != nil {
			return err
		}
	}

	if len(results) < len(cases) {
		return NewExitError(ExitFailure, fmt.Sprintf("run interrupted after %d of %d tests", len(results), len(cases)))
	}
	if summary.Failed > 0 && !opts.TeamCity {
		return NewExitError(ExitFailure, fmt.Sprintf("%d test(s) failed", summary.Failed))
	}
	return nil
}

func runBatch(ctx context.Context, cmd *cobra.Command, opts *RootOptions, h *harness.Harness, cases []string) error {
	out := cmd.OutOrStdout()
	childOut := out
	if opts.Format == "json" {
		childOut = cmd.ErrOrStderr()
	}

	result, err := h.Batch(ctx, cases, childOut)
	if err != nil {
		return WrapExitError(ExitFailure, "batch run failed", err)
	}

	if opts.Format == "json" {
		response := CLIResponse{
			Status: "ok",
			Data: BatchRunResult{
				Cases:    result.Cases,
				ExitCode: result.ExitCode,
				TimedOut: result.TimedOut,
				Command:  result.Command,
				Duration: result.Duration.Round(time.Millisecond).String(),
			},
		}
		if result.ExitCode != 0 {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "E_BATCH_FAILED",
				Message: fmt.Sprintf("batch exited with code %d", result.ExitCode),
			}
		}
		if err := writeJSON(out, response); err != nil {
			return err
		}
	} else if result.TimedOut {
		fmt.Fprintf(out, "TIMEOUT: batch of %d tests exceeded %s\n", result.Cases, opts.Timeout*time.Duration(result.Cases))
	}

	if result.ExitCode != 0 && !opts.TeamCity {
		code := result.ExitCode
		if code < 0 {
			code = ExitFailure
		}
		return NewExitError(code, fmt.Sprintf("batch exited with code %d", result.ExitCode))
	}
	return nil
}

func outputDryRun(cmd *cobra.Command, opts *RootOptions, cases []string) error {
	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(out, CLIResponse{
			Status: "ok",
			Data:   map[string]any{"cases": cases},
		})
	}
	for _, id := range cases {
		fmt.Fprintln(out, id)
	}
	return nil
}

// outputRunJSON outputs the run result as JSON.
func outputRunJSON(w io.Writer, result RunResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
		RunID:  result.Summary.RunID,
	}
	if result.Summary.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d test(s) failed", result.Summary.Failed),
			Details: result.Summary.FailedCases,
		}
	}
	return writeJSON(w, response)
}

func loadLists(path string) (*suite.Config, error) {
	if path == "" {
		return suite.Default()
	}
	return suite.Load(path)
}

func resolveExecutable(opts *RootOptions, env Env, logger *slog.Logger) (string, error) {
	if opts.Emulator != "" {
		return locate.Explicit(opts.Emulator)
	}
	return locate.Resolve(env.WorkDir, locate.DefaultPatterns, logger)
}

// newLogger configures structured logging on w: debug when verbose,
// otherwise warnings only.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// signalContext cancels on SIGINT or SIGTERM so no further tests start and
// the running child is killed.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Warn("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// errorCode maps a command error to the JSON error code.
func errorCode(err error) string {
	var loadErr *suite.LoadError
	switch {
	case errors.As(err, &loadErr):
		return loadErr.Code
	case errors.Is(err, locate.ErrNoExecutable), errors.Is(err, locate.ErrNoTestTree):
		return "E_SETUP"
	case errors.Is(err, suite.ErrNoCases):
		return "E_NO_TESTS"
	case GetExitCode(err) == ExitCommandError:
		return "E_COMMAND"
	default:
		return "E_TEST_FAILED"
	}
}

// writeCommandError renders a setup error as a JSON response.
func writeCommandError(w io.Writer, err error) {
	_ = writeJSON(w, CLIResponse{
		Status: "error",
		Error:  &CLIError{Code: errorCode(err), Message: err.Error()},
	})
}
