// Package locate finds the headless emulator binary and the test asset tree.
package locate

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// ErrNoExecutable means no candidate emulator binary exists.
	ErrNoExecutable = errors.New("headless emulator executable missing, please build one")

	// ErrNoTestTree means the test asset directory is absent.
	ErrNoTestTree = errors.New("test tree missing, please run: git submodule update --init")
)

// DefaultPatterns are the build outputs searched for the headless binary,
// relative to the project root. Globs cover per-configuration and
// per-architecture build directories.
var DefaultPatterns = []string{
	// Windows
	"Windows/*/PPSSPPHeadless.exe",
	"Windows/*/*/PPSSPPHeadless.exe",
	// macOS and multi-config CMake generators
	"build*/*/PPSSPPHeadless",
	"build*/PPSSPPHeadless.app/Contents/MacOS/PPSSPPHeadless",
	// Linux
	"build*/PPSSPPHeadless",
	"PPSSPPHeadless",
}

// Resolve returns the absolute path of the most recently modified regular
// file matching any of patterns under root. Freshly built binaries win over
// stale ones. The path is absolute so exec never falls back to $PATH.
func Resolve(root string, patterns []string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		best    string
		bestMod int64
	)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return "", fmt.Errorf("invalid executable pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			logger.Debug("executable candidate", "path", match, "modified", info.ModTime())
			if mod := info.ModTime().UnixNano(); best == "" || mod > bestMod {
				best, bestMod = match, mod
			}
		}
	}

	if best == "" {
		return "", ErrNoExecutable
	}
	path, err := filepath.Abs(best)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", best, err)
	}
	logger.Debug("executable resolved", "path", path)
	return path, nil
}

// Explicit validates a user-supplied executable path and makes it absolute.
func Explicit(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoExecutable, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrNoExecutable, path)
	}
	return filepath.Abs(path)
}

// CheckTree verifies the test asset directory exists.
func CheckTree(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w (%s)", ErrNoTestTree, dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w (%s is not a directory)", ErrNoTestTree, dir)
	}
	return nil
}
