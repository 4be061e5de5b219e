package harness

import (
	"os"
	"path/filepath"
)

// File extensions derived from a case identifier.
const (
	ExtPRX        = ".prx"
	ExtELF        = ".elf"
	ExtExpected   = ".expected"
	ExtScreenshot = ".expected.bmp"
)

// BinaryPath returns the case binary under root, preferring .prx over .elf.
// When neither exists it returns the .elf path and false.
func BinaryPath(root, id string) (string, bool) {
	base := filepath.Join(root, filepath.FromSlash(id))
	prx := base + ExtPRX
	if fileExists(prx) {
		return prx, true
	}
	elf := base + ExtELF
	return elf, fileExists(elf)
}

// ExpectedPath returns the golden output file for a case.
func ExpectedPath(root, id string) string {
	return filepath.Join(root, filepath.FromSlash(id)) + ExtExpected
}

// ScreenshotPath returns the golden screenshot for a case, if one exists.
func ScreenshotPath(root, id string) (string, bool) {
	path := filepath.Join(root, filepath.FromSlash(id)) + ExtScreenshot
	return path, fileExists(path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
