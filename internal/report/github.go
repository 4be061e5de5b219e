package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/autotest/internal/harness"
)

// GitHub emits workflow command annotations for failed cases.
type GitHub struct {
	w io.Writer
}

// NewGitHub creates a GitHub Actions reporter writing to w.
func NewGitHub(w io.Writer) *GitHub {
	return &GitHub{w: w}
}

func (g *GitHub) Start(runID string, cases []string) {}

func (g *GitHub) CaseStarted(id string) {}

func (g *GitHub) CaseFinished(r harness.Result) {
	var msg string
	switch r.Status {
	case harness.StatusPassed:
		return
	case harness.StatusMissingBinary:
		msg = "PRX/ELF missing for " + r.Case
	case harness.StatusMissingExpected:
		msg = "Expects file missing for " + r.Case
	case harness.StatusTimedOut:
		msg = "Test timeout for " + r.Case
	case harness.StatusLaunchError:
		msg = "Test init failed for " + r.Case
	case harness.StatusMismatched:
		msg = "Output different from expected file for " + r.Case
	default:
		msg = fmt.Sprintf("Test %s for %s", r.Status, r.Case)
	}
	fmt.Fprintf(g.w, "::error title=%s::%s\n", githubEscapeProperty(r.Case), githubEscapeData(msg))
}

func (g *GitHub) Finish(s Summary) error {
	if s.Failed > 0 {
		fmt.Fprintf(g.w, "::notice::%d tests passed, %d tests failed.\n", s.Passed, s.Failed)
	}
	return nil
}

var githubDataReplacer = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

var githubPropertyReplacer = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")

func githubEscapeData(s string) string {
	return githubDataReplacer.Replace(s)
}

func githubEscapeProperty(s string) string {
	return githubPropertyReplacer.Replace(s)
}
