package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single case's wall-clock time.
const DefaultTimeout = 5 * time.Second

// waitDelay bounds how long Wait keeps draining output after the child is
// killed, in case a grandchild still holds the pipe.
const waitDelay = 2 * time.Second

// Clock supplies wall-clock time for durations.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config is built once at startup and never mutated afterwards.
type Config struct {
	// Executable is the resolved headless emulator binary.
	Executable string

	// Root is the test asset directory case identifiers are relative to.
	Root string

	// Timeout bounds each case. Zero or negative disables the bound.
	Timeout time.Duration

	// PassThrough flags are appended to every child command line.
	PassThrough []string

	// Update rewrites expected files from actual output instead of comparing.
	Update bool

	// Logger receives structured progress. Defaults to a discarding logger.
	Logger *slog.Logger

	// Clock defaults to the system clock.
	Clock Clock
}

// Harness executes test cases against the emulator.
type Harness struct {
	cfg    Config
	logger *slog.Logger
	clock  Clock
}

// New creates a Harness.
func New(cfg Config) (*Harness, error) {
	if cfg.Executable == "" {
		return nil, errors.New("executable is required")
	}
	if cfg.Root == "" {
		return nil, errors.New("test root is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}

	cfg.PassThrough = append([]string(nil), cfg.PassThrough...)
	return &Harness{cfg: cfg, logger: logger, clock: clock}, nil
}

// Config returns the harness configuration.
func (h *Harness) Config() Config {
	return h.cfg
}

// Run executes cases one at a time in order. Per-case failures never stop
// the run. If ctx is cancelled, the remaining cases are not started.
func (h *Harness) Run(ctx context.Context, cases []string, obs Observer) []Result {
	results := make([]Result, 0, len(cases))
	for _, id := range cases {
		if ctx.Err() != nil {
			h.logger.Warn("run cancelled", "remaining", len(cases)-len(results))
			break
		}
		if obs != nil {
			obs.CaseStarted(id)
		}
		result := h.RunCase(ctx, id)
		if obs != nil {
			obs.CaseFinished(result)
		}
		results = append(results, result)
	}
	return results
}

// RunCase executes one case and compares its output with the golden file.
// It never returns an error: every failure becomes a Result status.
func (h *Harness) RunCase(ctx context.Context, id string) Result {
	result := Result{Case: id}

	binary, ok := BinaryPath(h.cfg.Root, id)
	if !ok {
		result.Status = StatusMissingBinary
		h.logger.Warn("no prx or elf file", "case", id)
		return result
	}
	result.Binary = binary

	expectedPath := ExpectedPath(h.cfg.Root, id)
	expected, err := os.ReadFile(expectedPath)
	switch {
	case err == nil:
		result.Expected = strings.TrimSpace(string(expected))
	case h.cfg.Update && errors.Is(err, fs.ErrNotExist):
		// Capturing a new golden file.
	default:
		result.Status = StatusMissingExpected
		if !errors.Is(err, fs.ErrNotExist) {
			result.Err = err.Error()
		}
		h.logger.Warn("missing expects file", "case", id, "path", expectedPath)
		return result
	}

	args := append([]string{binary}, h.cfg.PassThrough...)
	if screenshot, ok := ScreenshotPath(h.cfg.Root, id); ok {
		args = append(args, "--screenshot="+screenshot, "--graphics")
	}
	result.Command = append([]string{h.cfg.Executable}, args...)

	var output bytes.Buffer
	start := h.clock.Now()
	_, timedOut, err := h.launch(ctx, args, nil, &output, h.cfg.Timeout)
	result.Duration = h.clock.Now().Sub(start)
	result.Output = strings.TrimSpace(output.String())

	switch {
	case timedOut:
		result.Status = StatusTimedOut
		h.logger.Warn("test timed out", "case", id, "timeout", h.cfg.Timeout)
		return result
	case err != nil:
		result.Status = StatusLaunchError
		result.Err = err.Error()
		h.logger.Warn("failed to launch", "case", id, "error", err)
		return result
	case HasErrorMarker(result.Output):
		result.Status = StatusLaunchError
		result.Err = "emulator reported " + ErrorMarker
		return result
	}

	if h.cfg.Update {
		if err := os.WriteFile(expectedPath, []byte(result.Output+"\n"), 0644); err != nil {
			result.Status = StatusLaunchError
			result.Err = fmt.Sprintf("failed to write expected file: %v", err)
			return result
		}
		result.Expected = result.Output
		result.Updated = true
		result.Status = StatusPassed
		h.logger.Info("expected file updated", "case", id, "path", expectedPath)
		return result
	}

	result.Comparison = Compare(result.Expected, result.Output)
	if result.Comparison.Equal() {
		result.Status = StatusPassed
	} else {
		result.Status = StatusMismatched
	}

	h.logger.Debug("case finished",
		"case", id,
		"status", result.Status,
		"mismatches", len(result.Comparison.Mismatches),
		"duration", result.Duration,
	)
	return result
}

// launch runs the executable with args until it exits or timeout elapses.
// stdout and stderr share out. On timeout the child is killed and waited
// for, so it never outlives the call.
//
// A non-zero exit status is not an error: it is returned as exitCode.
func (h *Harness) launch(ctx context.Context, args []string, stdin io.Reader, out io.Writer, timeout time.Duration) (exitCode int, timedOut bool, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, h.cfg.Executable, args...)
	cmd.Stdin = stdin
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = waitDelay

	h.logger.Debug("launching", "executable", h.cfg.Executable, "args", args)
	err = cmd.Run()
	if err == nil {
		return 0, false, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return -1, true, nil
	}
	if ctx.Err() != nil {
		return -1, false, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		h.logger.Debug("child exited non-zero", "code", exitErr.ExitCode())
		return exitErr.ExitCode(), false, nil
	}
	return -1, false, err
}
