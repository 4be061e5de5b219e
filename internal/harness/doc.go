// Package harness runs headless emulator test cases and compares their
// output against golden files.
//
// # Test Case Layout
//
// A case identifier such as "cpu/fpu/fpu" maps to files under the test root:
//
//	cpu/fpu/fpu.prx           binary under test (preferred)
//	cpu/fpu/fpu.elf           binary under test (fallback)
//	cpu/fpu/fpu.expected      golden output
//	cpu/fpu/fpu.expected.bmp  optional golden screenshot
//
// A case without a binary or without an expected file always fails; it is
// never skipped.
//
// # Execution
//
// Cases run strictly one at a time. Each child process is bounded by
// Config.Timeout; when the deadline passes the child is killed and waited
// for before the next case starts, and the case is marked timed out no
// matter what it printed. There are no retries.
//
// # Comparison
//
// Output and golden text are trimmed as a whole and per line, then compared
// line by line. Every differing line is reported, and a line count
// difference is a failure on its own. Output that begins with ErrorMarker is
// a launch error and is not compared.
//
// # Batch Mode
//
// Batch hands all binaries to a single child invoked with --compare and
// reads back only its exit code. It trades per-case detail for fewer
// process launches.
//
// # Usage
//
//	h, err := harness.New(harness.Config{
//	    Executable: exe,
//	    Root:       "pspautotests/tests",
//	    Timeout:    harness.DefaultTimeout,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	results := h.Run(ctx, []string{"cpu/fpu/fpu"}, nil)
package harness
