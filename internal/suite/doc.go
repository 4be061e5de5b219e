// Package suite holds the static test lists and resolves which test cases a
// run should execute.
//
// # List Format
//
// Lists are declared in a single YAML (or CUE) document mapping a list name
// to an ordered sequence of case identifiers:
//
//	default: [next, good]
//	lists:
//	  good:
//	    - cpu/cpu_alu/cpu_alu
//	    - cpu/fpu/fpu
//	  next:
//	    - gpu/commands/basic
//	  broken:
//	    - audio/atrac/decode
//	  ignored:
//	    - umd/raw_access/raw_access
//
// A case identifier is a path relative to the test root without extension.
// The harness derives `<id>.prx`, `<id>.elf` and `<id>.expected` from it.
//
// The order of each list is significant and preserved by selection; lists
// are never sorted.
package suite
