package harness

import (
	"fmt"
	"time"
)

// Status is the terminal outcome of one test case.
//
//	Pending -> MissingBinary | MissingExpected
//	Pending -> Launched -> Passed | Mismatched | TimedOut | LaunchError
type Status int

const (
	StatusPassed Status = iota
	StatusMismatched
	StatusLaunchError
	StatusTimedOut
	StatusMissingBinary
	StatusMissingExpected
)

var statusNames = map[Status]string{
	StatusPassed:          "passed",
	StatusMismatched:      "mismatched",
	StatusLaunchError:     "launch_error",
	StatusTimedOut:        "timed_out",
	StatusMissingBinary:   "missing_binary",
	StatusMissingExpected: "missing_expected",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MismatchKind distinguishes differing lines from surplus ones.
type MismatchKind int

const (
	// LineDiffers: both sides have the line but it differs.
	LineDiffers MismatchKind = iota
	// LineMissing: expected has the line, actual output ended early.
	LineMissing
	// LineExtra: actual output has a line beyond the expected end.
	LineExtra
)

// Mismatch is one line-level difference between expected and actual output.
type Mismatch struct {
	Kind     MismatchKind `json:"-"`
	Line     int          `json:"line"` // 1-based
	Expected string       `json:"expected,omitempty"`
	Actual   string       `json:"actual,omitempty"`
}

// Comparison is the outcome of comparing actual output to a golden file.
type Comparison struct {
	Mismatches    []Mismatch `json:"mismatches,omitempty"`
	ExpectedLines int        `json:"expected_lines"`
	ActualLines   int        `json:"actual_lines"`
}

// LineCountDiffers reports whether the two sides have a different number of lines.
func (c Comparison) LineCountDiffers() bool {
	return c.ExpectedLines != c.ActualLines
}

// Equal reports whether actual output matched the expected file exactly.
func (c Comparison) Equal() bool {
	return len(c.Mismatches) == 0 && !c.LineCountDiffers()
}

// Result is the outcome of executing one test case.
type Result struct {
	Case    string   `json:"case"`
	Status  Status   `json:"status"`
	Binary  string   `json:"binary,omitempty"`
	Command []string `json:"command,omitempty"`

	// Output is the combined stdout/stderr of the child, trimmed. For a
	// timed-out case it is partial and only kept for diagnostics.
	Output   string `json:"output,omitempty"`
	Expected string `json:"expected,omitempty"`

	Comparison Comparison    `json:"comparison"`
	Duration   time.Duration `json:"duration"`

	// Updated is set when the run rewrote the expected file instead of comparing.
	Updated bool `json:"updated,omitempty"`

	// Err holds the launch or I/O error text, if any.
	Err string `json:"error,omitempty"`
}

// Passed reports whether the case passed.
func (r *Result) Passed() bool {
	return r.Status == StatusPassed
}

// Observer receives per-case progress from Run.
type Observer interface {
	CaseStarted(id string)
	CaseFinished(result Result)
}
