package harness

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// BatchResult is the aggregate outcome of a batch run. The child compares
// each case itself, so no per-case detail is available.
type BatchResult struct {
	Cases    int
	ExitCode int
	TimedOut bool
	Command  []string
	Duration time.Duration
}

// Batch runs every case in one child process. The newline-joined binary
// paths are piped to the child's stdin ("@-") with --compare, and the whole
// batch is bounded by Timeout multiplied by the number of cases. Without a
// positive Timeout neither the child nor the batch is bounded. Child output
// is streamed to out.
func (h *Harness) Batch(ctx context.Context, cases []string, out io.Writer) (BatchResult, error) {
	result := BatchResult{Cases: len(cases)}
	if len(cases) == 0 {
		return result, nil
	}

	paths := make([]string, 0, len(cases))
	for _, id := range cases {
		binary, ok := BinaryPath(h.cfg.Root, id)
		if !ok {
			// The child reports it as TESTERROR.
			h.logger.Warn("no prx or elf file", "case", id)
		}
		paths = append(paths, binary)
	}

	args := []string{
		"--root", filepath.Join(h.cfg.Root, "..") + string(filepath.Separator),
		"--compare",
	}
	if h.cfg.Timeout > 0 {
		args = append(args, fmt.Sprintf("--timeout=%g", h.cfg.Timeout.Seconds()))
	}
	args = append(args, h.cfg.PassThrough...)
	args = append(args, "@-")
	result.Command = append([]string{h.cfg.Executable}, args...)

	timeout := h.cfg.Timeout * time.Duration(len(cases))
	stdin := strings.NewReader(strings.Join(paths, "\n") + "\n")

	start := h.clock.Now()
	exitCode, timedOut, err := h.launch(ctx, args, stdin, out, timeout)
	result.Duration = h.clock.Now().Sub(start)

	switch {
	case timedOut:
		result.TimedOut = true
		result.ExitCode = 1
		h.logger.Warn("batch timed out", "cases", len(cases), "timeout", timeout)
		return result, nil
	case err != nil:
		return result, fmt.Errorf("running batch: %w", err)
	}

	result.ExitCode = exitCode
	if exitCode < 0 {
		// Killed by a signal; there is no exit status to propagate.
		result.ExitCode = 1
	}
	h.logger.Info("batch finished", "cases", len(cases), "exit_code", result.ExitCode)
	return result, nil
}
