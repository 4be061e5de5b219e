package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/autotest/internal/harness"
)

// SuiteName is the test suite name reported to CI systems.
const SuiteName = "autotest"

// TeamCity emits ##teamcity service messages around each case.
//
// Missing binaries or expected files are reported as ignored tests; the
// run still counts them as failures.
type TeamCity struct {
	w      io.Writer
	flowID string
}

// NewTeamCity creates a TeamCity reporter writing to w.
func NewTeamCity(w io.Writer) *TeamCity {
	return &TeamCity{w: w}
}

func (t *TeamCity) Start(runID string, cases []string) {
	t.flowID = runID
	t.message("testSuiteStarted", "name", SuiteName)
}

func (t *TeamCity) CaseStarted(id string) {
	t.message("testStarted", "name", id, "captureStandardOutput", "true")
}

func (t *TeamCity) CaseFinished(r harness.Result) {
	switch r.Status {
	case harness.StatusMissingBinary:
		t.message("testIgnored", "name", r.Case, "message", "PRX/ELF missing")
	case harness.StatusMissingExpected:
		t.message("testIgnored", "name", r.Case, "message", "Expects file missing")
	case harness.StatusTimedOut:
		t.message("testFailed", "name", r.Case, "message", "Test timeout")
	case harness.StatusLaunchError:
		t.message("testFailed", "name", r.Case, "message", "Startup failed", "details", r.Err)
	case harness.StatusMismatched:
		t.message("testFailed", "name", r.Case,
			"message", "Output different from expected file",
			"details", strings.Join(DiffLines(r.Comparison), "\n"))
	}
	t.message("testFinished", "name", r.Case, "duration", fmt.Sprint(r.Duration.Milliseconds()))
}

func (t *TeamCity) Finish(s Summary) error {
	t.message("testSuiteFinished", "name", SuiteName)
	return nil
}

// message writes one service message. attrs are name/value pairs.
func (t *TeamCity) message(kind string, attrs ...string) {
	var b strings.Builder
	b.WriteString("##teamcity[")
	b.WriteString(kind)
	for i := 0; i+1 < len(attrs); i += 2 {
		fmt.Fprintf(&b, " %s='%s'", attrs[i], TeamCityEscape(attrs[i+1]))
	}
	if t.flowID != "" {
		fmt.Fprintf(&b, " flowId='%s'", TeamCityEscape(t.flowID))
	}
	b.WriteString("]\n")
	io.WriteString(t.w, b.String())
}

var teamCityReplacer = strings.NewReplacer(
	"|", "||",
	"'", "|'",
	"\n", "|n",
	"\r", "|r",
	"[", "|[",
	"]", "|]",
)

// TeamCityEscape escapes a value for a service message attribute.
func TeamCityEscape(s string) string {
	return teamCityReplacer.Replace(s)
}
