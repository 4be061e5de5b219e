package locate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("bin"), 0755))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestResolvePicksNewest(t *testing.T) {
	root := t.TempDir()
	now := time.Now()

	touch(t, filepath.Join(root, "build", "PPSSPPHeadless"), now.Add(-time.Hour))
	touch(t, filepath.Join(root, "build-debug", "PPSSPPHeadless"), now)
	touch(t, filepath.Join(root, "build-old", "Release", "PPSSPPHeadless"), now.Add(-2*time.Hour))

	path, err := Resolve(root, DefaultPatterns, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "build-debug", "PPSSPPHeadless"), path)
}

func TestResolveAcrossPatterns(t *testing.T) {
	root := t.TempDir()
	now := time.Now()

	touch(t, filepath.Join(root, "PPSSPPHeadless"), now.Add(-time.Minute))
	touch(t, filepath.Join(root, "build", "RelWithDebInfo", "PPSSPPHeadless"), now)

	path, err := Resolve(root, DefaultPatterns, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "build", "RelWithDebInfo", "PPSSPPHeadless"), path)
}

func TestResolveSkipsDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build", "PPSSPPHeadless"), 0755))

	_, err := Resolve(root, []string{"build*/PPSSPPHeadless"}, nil)
	require.ErrorIs(t, err, ErrNoExecutable)
}

func TestResolveNoMatch(t *testing.T) {
	_, err := Resolve(t.TempDir(), DefaultPatterns, nil)
	require.ErrorIs(t, err, ErrNoExecutable)
	assert.Contains(t, err.Error(), "please build one")
}

func TestResolveBadPattern(t *testing.T) {
	_, err := Resolve(t.TempDir(), []string{"build[/x"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid executable pattern")
}

func TestExplicit(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "emu")
	touch(t, bin, time.Now())

	path, err := Explicit(bin)
	require.NoError(t, err)
	assert.Equal(t, bin, path)

	_, err = Explicit(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, ErrNoExecutable)

	_, err = Explicit(dir)
	require.ErrorIs(t, err, ErrNoExecutable)
}

func TestCheckTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, CheckTree(dir))

	err := CheckTree(filepath.Join(dir, "pspautotests", "tests"))
	require.ErrorIs(t, err, ErrNoTestTree)
	assert.Contains(t, err.Error(), "git submodule update --init")

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	require.ErrorIs(t, CheckTree(file), ErrNoTestTree)
}

func TestResolveFromWorkingDirectoryIsAbsolute(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "PPSSPPHeadless")
	touch(t, bin, time.Now())
	chdir(t, dir)

	path, err := Resolve(".", DefaultPatterns, nil)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path), path)
	assert.Equal(t, "PPSSPPHeadless", filepath.Base(path))

	want, err := os.Stat(bin)
	require.NoError(t, err)
	got, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, os.SameFile(want, got))
}

func TestExplicitRelativeIsAbsolute(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "PPSSPPHeadless"), time.Now())
	chdir(t, dir)

	path, err := Explicit("PPSSPPHeadless")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path), path)
	assert.Equal(t, "PPSSPPHeadless", filepath.Base(path))
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
