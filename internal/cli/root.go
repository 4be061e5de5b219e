package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/autotest/internal/harness"
	"github.com/roach88/autotest/internal/report"
)

// RootOptions holds every flag the harness itself understands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	Good  bool
	Next  bool
	Match bool

	TeamCity bool
	GitHub   bool
	Batch    bool
	Update   bool
	DryRun   bool

	Timeout  time.Duration
	Root     string
	Emulator string
	Lists    string

	// PassThrough holds unrecognised dash arguments, forwarded verbatim to
	// the emulator.
	PassThrough []string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// DefaultRoot is the test asset tree, relative to the project root.
const DefaultRoot = "pspautotests/tests"

// Env is the process environment the command depends on. Tests replace it.
type Env struct {
	// WorkDir is where the emulator build outputs are searched.
	WorkDir string

	// Getenv reads environment variables.
	Getenv func(string) string

	// RunIDs names each run for CI markers and JSON output.
	RunIDs report.RunIDGenerator
}

// DefaultEnv uses the real process environment.
func DefaultEnv() Env {
	return Env{
		WorkDir: ".",
		Getenv:  os.Getenv,
		RunIDs:  report.UUIDv7Generator{},
	}
}

// NewRootCommand creates the autotest command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(DefaultEnv())
}

func newRootCommand(env Env) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "autotest [flags] [test...]",
		Short: "Run emulator regression tests",
		Long: `Run test programs through the headless emulator and compare their
output with the recorded .expected files.

Tests are identified by their path under the test root without extension,
for example cpu/cpu_alu/cpu_alu. With no test arguments the default lists
run. A single @file argument reads identifiers from a file, @- from stdin.

Any argument starting with "-" that autotest does not recognise is passed
through to the emulator unchanged.

Exit codes:
  0 - All tests passed (always 0 for test failures with --teamcity)
  1 - One or more tests failed
  2 - Setup error (emulator or test tree missing, invalid lists, etc.)

Examples:
  autotest
  autotest -g
  autotest -m cpu/vfpu
  autotest gpu/commands/basic --graphics=software
  autotest --batch -b
  autotest --update rtc/rtc`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			known, passThrough, positional, err := splitArgs(cmd.Flags(), args)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid arguments", err)
			}
			if err := cmd.Flags().Parse(known); err != nil {
				return WrapExitError(ExitCommandError, "invalid arguments", err)
			}
			if help, _ := cmd.Flags().GetBool("help"); help {
				return cmd.Help()
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.PassThrough = passThrough

			err = runAutotest(cmd, opts, env, positional)
			if err != nil && opts.Format == "json" && GetExitCode(err) == ExitCommandError {
				writeCommandError(cmd.OutOrStdout(), err)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "print output of passing tests and debug logs")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.BoolVarP(&opts.Good, "good", "g", false, "run only the tests known to pass")
	flags.BoolVarP(&opts.Next, "next", "b", false, "run only the tests being worked on")
	flags.BoolVarP(&opts.Match, "match", "m", false, "run tests from the lists starting with the given prefix")
	flags.BoolVar(&opts.TeamCity, "teamcity", false, "emit TeamCity service messages and always exit 0 on test failures")
	flags.BoolVar(&opts.GitHub, "github", false, "emit GitHub Actions annotations (default when GITHUB_ACTIONS=true)")
	flags.BoolVar(&opts.Batch, "batch", false, "run all tests in a single emulator process")
	flags.BoolVar(&opts.Update, "update", false, "rewrite .expected files from actual output")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "print the selected tests without running them")
	flags.DurationVar(&opts.Timeout, "timeout", harness.DefaultTimeout, "per-test timeout")
	flags.StringVar(&opts.Root, "root", DefaultRoot, "test asset directory")
	flags.StringVar(&opts.Emulator, "emulator", "", "headless emulator binary (default: newest local build)")
	flags.StringVar(&opts.Lists, "lists", "", "test list file (.yaml or .cue, default: built-in lists)")

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// splitArgs partitions raw arguments into flags autotest defines, unknown
// dash arguments for the emulator and positional test identifiers.
//
// Value flags take "--name=value" or "--name value". Combined shorthands
// like "-gv" are known only if every letter is a known boolean shorthand.
// Everything after "--" is positional.
func splitArgs(flags *pflag.FlagSet, args []string) (known, passThrough, positional []string, err error) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			positional = append(positional, args[i+1:]...)
			return known, passThrough, positional, nil

		case strings.HasPrefix(arg, "--"):
			name, _, hasValue := strings.Cut(arg[2:], "=")
			flag := flags.Lookup(name)
			if flag == nil {
				passThrough = append(passThrough, arg)
				continue
			}
			known = append(known, arg)
			if hasValue || flag.NoOptDefVal != "" {
				continue
			}
			if i+1 >= len(args) {
				return nil, nil, nil, fmt.Errorf("flag needs an argument: --%s", name)
			}
			i++
			known = append(known, args[i])

		case len(arg) > 1 && arg[0] == '-':
			letters := arg[1:]
			if len(letters) == 1 {
				flag := flags.ShorthandLookup(letters)
				if flag == nil {
					passThrough = append(passThrough, arg)
					continue
				}
				known = append(known, arg)
				if flag.NoOptDefVal == "" {
					if i+1 >= len(args) {
						return nil, nil, nil, fmt.Errorf("flag needs an argument: -%s", letters)
					}
					i++
					known = append(known, args[i])
				}
				continue
			}
			if allBoolShorthands(flags, letters) {
				known = append(known, arg)
			} else {
				passThrough = append(passThrough, arg)
			}

		default:
			positional = append(positional, arg)
		}
	}
	return known, passThrough, positional, nil
}

func allBoolShorthands(flags *pflag.FlagSet, letters string) bool {
	for _, r := range letters {
		flag := flags.ShorthandLookup(string(r))
		if flag == nil || flag.NoOptDefVal == "" {
			return false
		}
	}
	return true
}
