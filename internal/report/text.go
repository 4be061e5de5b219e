package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/autotest/internal/harness"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// TextOptions configures the human-readable reporter.
type TextOptions struct {
	// Verbose prints the full output even for passing cases.
	Verbose bool

	// Color wraps pass/fail words in ANSI colour.
	Color bool
}

// Text prints per-case diagnostics inline and a summary at the end.
type Text struct {
	w    io.Writer
	opts TextOptions
}

// NewText creates a text reporter writing to w.
func NewText(w io.Writer, opts TextOptions) *Text {
	return &Text{w: w, opts: opts}
}

func (t *Text) Start(runID string, cases []string) {}

func (t *Text) CaseStarted(id string) {}

func (t *Text) CaseFinished(r harness.Result) {
	w := t.w

	switch r.Status {
	case harness.StatusPassed:
		if t.opts.Verbose {
			fmt.Fprintln(w, "++++++++++++++ The Equal Output +++++++++++++")
			fmt.Fprintln(w, r.Output)
			fmt.Fprintln(w, "+++++++++++++++++++++++++++++++++++++++++++++")
		}
		if r.Updated {
			fmt.Fprintf(w, "  %s - %s\n", r.Case, t.paint(ansiGreen, "expected file updated"))
			return
		}
		fmt.Fprintf(w, "  %s - %s\n", r.Case, t.paint(ansiGreen, "passed!"))

	case harness.StatusMissingBinary:
		fmt.Fprintf(w, "WARNING: no prx or elf file for %s\n", r.Case)

	case harness.StatusMissingExpected:
		fmt.Fprintf(w, "WARNING: missing expects file for %s\n", r.Case)
		if r.Err != "" {
			fmt.Fprintf(w, "  %s\n", r.Err)
		}

	case harness.StatusLaunchError:
		fmt.Fprintf(w, "Failed to run test %s!\n", r.Case)
		if r.Err != "" {
			fmt.Fprintf(w, "  %s\n", r.Err)
		}
		if r.Output != "" {
			fmt.Fprintf(w, "============== output from failed %s :\n", r.Case)
			fmt.Fprintln(w, r.Output)
		}

	case harness.StatusTimedOut:
		fmt.Fprintf(w, "%s %s\n", t.paint(ansiRed, "TIMEOUT:"), r.Case)
		if r.Output != "" {
			fmt.Fprintf(w, "============== partial output from %s :\n", r.Case)
			fmt.Fprintln(w, r.Output)
		}

	case harness.StatusMismatched:
		for _, line := range DiffLines(r.Comparison) {
			fmt.Fprintln(w, line)
		}
		if r.Comparison.LineCountDiffers() {
			fmt.Fprintln(w, "*** Different number of lines!")
		}
		fmt.Fprintln(w, strings.Join(r.Command, " "))
		fmt.Fprintf(w, "============== output from failed %s :\n", r.Case)
		fmt.Fprintln(w, r.Output)
		fmt.Fprintln(w, "============== expected output:")
		fmt.Fprintln(w, r.Expected)
	}
}

func (t *Text) Finish(s Summary) error {
	w := t.w
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d tests passed, %d tests failed.\n", s.Passed, s.Failed)
	if s.Failed == 0 {
		return nil
	}

	fmt.Fprintln(w, t.paint(ansiRed, "Failed tests:"))
	for _, id := range s.FailedCases {
		fmt.Fprintf(w, "  %s\n", id)
	}
	return nil
}

func (t *Text) paint(color, s string) string {
	if !t.opts.Color {
		return s
	}
	return color + s + ansiReset
}

// DiffLines renders mismatches as "E<n> < expected" and "O<n> > actual"
// lines in order.
func DiffLines(c harness.Comparison) []string {
	var lines []string
	for _, m := range c.Mismatches {
		switch m.Kind {
		case harness.LineDiffers:
			lines = append(lines,
				fmt.Sprintf("E%d < %s", m.Line, m.Expected),
				fmt.Sprintf("O%d > %s", m.Line, m.Actual),
			)
		case harness.LineMissing:
			lines = append(lines, fmt.Sprintf("E%d < %s", m.Line, m.Expected))
		case harness.LineExtra:
			lines = append(lines, fmt.Sprintf("O%d > %s", m.Line, m.Actual))
		}
	}
	return lines
}
