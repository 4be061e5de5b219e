package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{ListNext, ListGood}, cfg.Default)
	assert.Contains(t, cfg.List(ListGood), "cpu/fpu/fpu")
	assert.NotEmpty(t, cfg.List(ListNext))
	assert.NotEmpty(t, cfg.List(ListBroken))
	assert.NotEmpty(t, cfg.List(ListIgnored))
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "lists.yaml", `
default: [good]
lists:
  good:
    - cpu/fpu/fpu.prx
    - " ctrl/ctrl "
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{ListGood}, cfg.Default)
	assert.Equal(t, []string{"cpu/fpu/fpu", "ctrl/ctrl"}, cfg.List(ListGood))
}

func TestLoadYAMLDefaultsToNextThenGood(t *testing.T) {
	path := writeFile(t, "lists.yml", `
lists:
  good: [a]
  next: [b]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{ListNext, ListGood}, cfg.Default)
}

func TestLoadYAMLDefaultSkipsMissingNext(t *testing.T) {
	path := writeFile(t, "lists.yaml", "lists:\n  good: [a]\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{ListGood}, cfg.Default)
}

func TestLoadYAMLUnknownField(t *testing.T) {
	path := writeFile(t, "lists.yaml", "list:\n  good: [a]\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, IsLoadError(err, ErrCodeParseFailed))
}

func TestLoadYAMLUnknownDefaultList(t *testing.T) {
	path := writeFile(t, "lists.yaml", "default: [slow]\nlists:\n  good: [a]\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, IsLoadError(err, ErrCodeInvalid))
	assert.Contains(t, err.Error(), `unknown list "slow"`)
}

func TestLoadYAMLEmptyIdentifier(t *testing.T) {
	path := writeFile(t, "lists.yaml", "lists:\n  good: [a, \"  \"]\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lists.good[1]")
}

func TestLoadYAMLNoLists(t *testing.T) {
	path := writeFile(t, "lists.yaml", "default: [good]\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, IsLoadError(err, ErrCodeInvalid))
}

func TestLoadCUE(t *testing.T) {
	path := writeFile(t, "lists.cue", `
_vfpu: ["cpu/vfpu/colors", "cpu/vfpu/gum"]

default: ["good", "next"]
lists: {
	good: ["cpu/fpu/fpu", for c in _vfpu {c}]
	next: ["gpu/commands/basic"]
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{ListGood, ListNext}, cfg.Default)
	assert.Equal(t, []string{"cpu/fpu/fpu", "cpu/vfpu/colors", "cpu/vfpu/gum"}, cfg.List(ListGood))
}

func TestLoadCUESyntaxError(t *testing.T) {
	path := writeFile(t, "lists.cue", "lists: {\n  good: [\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, IsLoadError(err, ErrCodeParseFailed))
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "lists.json", "{}")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, IsLoadError(err, ErrCodeUnsupported))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/lists.yaml")
	require.Error(t, err)
	assert.True(t, IsLoadError(err, ErrCodeReadFailed))
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"cpu/fpu/fpu", "cpu/fpu/fpu"},
		{"cpu/fpu/fpu.prx", "cpu/fpu/fpu"},
		{"cpu/fpu/fpu.elf", "cpu/fpu/fpu"},
		{`cpu\fpu\fpu`, "cpu/fpu/fpu"},
		{"  ctrl/ctrl\n", "ctrl/ctrl"},
		{"cafe\u0301", "caf\u00e9"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Normalize(tc.input))
	}
}
