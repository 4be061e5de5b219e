package harness

import "strings"

// ErrorMarker at the start of output means the emulator could not start the
// test. Such output is never compared line by line.
const ErrorMarker = "TESTERROR"

// Compare diffs actual output against expected output.
//
// Both blobs are trimmed, split into lines and each line is trimmed. Lines
// are compared index by index up to the shorter length and every mismatch is
// recorded. Surplus lines on either side are then enumerated; a differing
// line count is a failure even when the shared prefix matches.
func Compare(expected, actual string) Comparison {
	expectedLines := splitLines(expected)
	actualLines := splitLines(actual)

	cmp := Comparison{
		ExpectedLines: len(expectedLines),
		ActualLines:   len(actualLines),
	}

	shared := min(len(expectedLines), len(actualLines))
	for i := 0; i < shared; i++ {
		if expectedLines[i] != actualLines[i] {
			cmp.Mismatches = append(cmp.Mismatches, Mismatch{
				Kind:     LineDiffers,
				Line:     i + 1,
				Expected: expectedLines[i],
				Actual:   actualLines[i],
			})
		}
	}

	for i := shared; i < len(expectedLines); i++ {
		cmp.Mismatches = append(cmp.Mismatches, Mismatch{
			Kind:     LineMissing,
			Line:     i + 1,
			Expected: expectedLines[i],
		})
	}
	for i := shared; i < len(actualLines); i++ {
		cmp.Mismatches = append(cmp.Mismatches, Mismatch{
			Kind:   LineExtra,
			Line:   i + 1,
			Actual: actualLines[i],
		})
	}

	return cmp
}

// HasErrorMarker reports whether output begins with ErrorMarker.
func HasErrorMarker(output string) bool {
	return strings.HasPrefix(strings.TrimSpace(output), ErrorMarker)
}

// splitLines trims the blob, splits it on line breaks and trims each line.
// An empty blob has no lines.
func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}
