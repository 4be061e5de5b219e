package testutil

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// HelperEnv switches a test binary into fake emulator mode. Packages that
// launch the emulator check it in TestMain:
//
//	func TestMain(m *testing.M) {
//	    if os.Getenv(testutil.HelperEnv) == "1" {
//	        os.Exit(testutil.FakeEmulator(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
//	    }
//	    os.Exit(m.Run())
//	}
//
// Tests then use os.Args[0] as the executable with HelperEnv set.
const HelperEnv = "AUTOTEST_FAKE_EMULATOR"

// FakeEmulator stands in for the headless emulator. The "binary" it is given
// is a text script; each line is printed to stdout except these directives:
//
//	#sleep <duration>  sleep before continuing
//	#exit <code>       exit with code when the script ends
//	#stderr <text>     print text to stderr
//	#args              print every other argument, one per line
//	#fail              fail the case in batch (--compare) mode
//	#kill              kill the emulator process with SIGKILL
//
// With a trailing "@-" argument it reads binary paths from stdin and runs
// each, exiting 1 if any contains #fail or is missing.
func FakeEmulator(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[len(args)-1] == "@-" {
		return fakeBatch(args, stdin, stdout, stderr)
	}

	var binary string
	var rest []string
	for _, arg := range args {
		if binary == "" && !strings.HasPrefix(arg, "-") {
			binary = arg
			continue
		}
		rest = append(rest, arg)
	}
	if binary == "" {
		fmt.Fprintln(stderr, "usage: fake file.prx [options]")
		return 1
	}

	script, err := os.ReadFile(binary)
	if err != nil {
		fmt.Fprintln(stdout, "TESTERROR")
		return 1
	}
	code, _ := runScript(script, rest, stdout, stderr)
	return code
}

func fakeBatch(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fmt.Fprintf(stdout, "args: %s\n", strings.Join(args, " "))

	failed := 0
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		path := strings.TrimSpace(scanner.Text())
		if path == "" {
			continue
		}
		fmt.Fprintf(stdout, "%s:\n", path)
		script, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stdout, "TESTERROR")
			failed++
			continue
		}
		if _, fail := runScript(script, nil, io.Discard, stderr); fail {
			failed++
		}
	}
	fmt.Fprintf(stdout, "%d tests failed.\n", failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func runScript(script []byte, args []string, stdout, stderr io.Writer) (code int, fail bool) {
	for _, line := range strings.Split(string(script), "\n") {
		directive, arg, _ := strings.Cut(line, " ")
		switch directive {
		case "#sleep":
			if d, err := time.ParseDuration(arg); err == nil {
				time.Sleep(d)
			}
		case "#exit":
			code, _ = strconv.Atoi(arg)
		case "#stderr":
			fmt.Fprintln(stderr, arg)
		case "#args":
			for _, a := range args {
				fmt.Fprintln(stdout, a)
			}
		case "#fail":
			fail = true
		case "#kill":
			if p, err := os.FindProcess(os.Getpid()); err == nil {
				_ = p.Kill()
				time.Sleep(time.Minute)
			}
		default:
			fmt.Fprintln(stdout, line)
		}
	}
	return code, fail
}

// TestTree builds a test asset directory in a temp dir.
type TestTree struct {
	t    *testing.T
	Root string
}

// NewTestTree creates an empty test root.
func NewTestTree(t *testing.T) *TestTree {
	t.Helper()
	return &TestTree{t: t, Root: t.TempDir()}
}

// Add writes id+ext with content, creating parent directories.
func (tr *TestTree) Add(id, ext, content string) string {
	tr.t.Helper()
	path := filepath.Join(tr.Root, filepath.FromSlash(id)) + ext
	require.NoError(tr.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(tr.t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// Case writes a .prx script and its .expected golden output.
func (tr *TestTree) Case(id, script, expected string) {
	tr.t.Helper()
	tr.Add(id, ".prx", script)
	tr.Add(id, ".expected", expected)
}

// Read returns the content of id+ext.
func (tr *TestTree) Read(id, ext string) string {
	tr.t.Helper()
	data, err := os.ReadFile(filepath.Join(tr.Root, filepath.FromSlash(id)) + ext)
	require.NoError(tr.t, err)
	return string(bytes.TrimRight(data, "\n"))
}

// UseFakeEmulator sets HelperEnv for the test and returns the executable
// that behaves as FakeEmulator.
func UseFakeEmulator(t *testing.T) string {
	t.Helper()
	t.Setenv(HelperEnv, "1")
	return os.Args[0]
}
