// Package report renders test harness progress and summaries for people
// and for CI systems.
package report

import (
	"errors"
	"io"
	"os"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/roach88/autotest/internal/harness"
)

// Reporter observes a run from start to finish.
type Reporter interface {
	harness.Observer

	// Start is called once before the first case.
	Start(runID string, cases []string)

	// Finish is called once after the last case.
	Finish(summary Summary) error
}

// Summary is the aggregate of one run. It is produced once per invocation
// and never persisted.
type Summary struct {
	RunID       string                 `json:"run_id"`
	Total       int                    `json:"total"`
	Passed      int                    `json:"passed"`
	Failed      int                    `json:"failed"`
	FailedCases []string               `json:"failed_cases,omitempty"`
	ByStatus    map[harness.Status]int `json:"by_status"`
}

// Summarize aggregates results in order.
func Summarize(runID string, results []harness.Result) Summary {
	s := Summary{
		RunID:    runID,
		Total:    len(results),
		ByStatus: make(map[harness.Status]int),
	}
	for _, r := range results {
		s.ByStatus[r.Status]++
		if r.Passed() {
			s.Passed++
			continue
		}
		s.Failed++
		s.FailedCases = append(s.FailedCases, r.Case)
	}
	return s
}

// RunIDGenerator produces the identifier shared by every marker of a run.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run identifiers.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Multi fans every event out to several reporters in order.
type Multi []Reporter

func (m Multi) Start(runID string, cases []string) {
	for _, r := range m {
		r.Start(runID, cases)
	}
}

func (m Multi) CaseStarted(id string) {
	for _, r := range m {
		r.CaseStarted(id)
	}
}

func (m Multi) CaseFinished(result harness.Result) {
	for _, r := range m {
		r.CaseFinished(result)
	}
}

// Finish calls every reporter and joins their errors.
func (m Multi) Finish(summary Summary) error {
	var errs []error
	for _, r := range m {
		if err := r.Finish(summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsTerminal reports whether w is a terminal, used to decide on colour.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
