package harness

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/autotest/internal/testutil"
)

func TestBatchAllPass(t *testing.T) {
	tree := testutil.NewTestTree(t)
	tree.Case("cpu/fpu/fpu", "1.0", "1.0")
	tree.Add("ctrl/ctrl", ".elf", "ok")
	h := newHarness(t, tree, func(c *Config) { c.PassThrough = []string{"-i"} })

	var out bytes.Buffer
	result, err := h.Batch(context.Background(), []string{"cpu/fpu/fpu", "ctrl/ctrl"}, &out)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, 2, result.Cases)
	assert.False(t, result.TimedOut)
	assert.Contains(t, out.String(), filepath.Join(tree.Root, "cpu", "fpu", "fpu.prx")+":")
	assert.Contains(t, out.String(), filepath.Join(tree.Root, "ctrl", "ctrl.elf")+":")
	assert.Contains(t, out.String(), "0 tests failed.")

	args := result.Command[1:]
	assert.Equal(t, "--root", args[0])
	assert.Equal(t, "--compare", args[2])
	assert.Equal(t, "--timeout=5", args[3])
	assert.Equal(t, "-i", args[4])
	assert.Equal(t, "@-", args[len(args)-1])
}

func TestBatchPropagatesChildExitCode(t *testing.T) {
	tree := testutil.NewTestTree(t)
	tree.Case("cpu/fpu/fpu", "1.0", "1.0")
	tree.Case("gpu/commands/basic", "#fail", "")
	h := newHarness(t, tree)

	var out bytes.Buffer
	result, err := h.Batch(context.Background(), []string{"cpu/fpu/fpu", "gpu/commands/basic"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, out.String(), "1 tests failed.")
}

func TestBatchMissingBinaryDelegatedToChild(t *testing.T) {
	tree := testutil.NewTestTree(t)
	h := newHarness(t, tree)

	var out bytes.Buffer
	result, err := h.Batch(context.Background(), []string{"gpu/none"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, out.String(), filepath.Join(tree.Root, "gpu", "none.elf")+":\nTESTERROR")
}

func TestBatchTimeoutScalesWithCaseCount(t *testing.T) {
	tree := testutil.NewTestTree(t)
	tree.Case("slow/a", "#sleep 700ms", "")
	tree.Case("slow/b", "#sleep 700ms", "")
	tree.Case("slow/c", "#sleep 30s", "")

	h := newHarness(t, tree, func(c *Config) {
		c.Timeout = time.Second
		c.Clock = nil
	})

	t.Run("fits in combined budget", func(t *testing.T) {
		// 1.4s of work: over one case's budget, within 2 x 1s.
		result, err := h.Batch(context.Background(), []string{"slow/a", "slow/b"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.False(t, result.TimedOut)
		assert.Equal(t, 0, result.ExitCode)
	})

	t.Run("exceeds combined budget", func(t *testing.T) {
		start := time.Now()
		result, err := h.Batch(context.Background(), []string{"slow/a", "slow/c"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.True(t, result.TimedOut)
		assert.Equal(t, 1, result.ExitCode)
		assert.Less(t, time.Since(start), 10*time.Second)
	})
}

func TestBatchEmpty(t *testing.T) {
	tree := testutil.NewTestTree(t)
	h := newHarness(t, tree)

	result, err := h.Batch(context.Background(), nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Cases)
	assert.Empty(t, result.Command)
}

func TestBatchWithoutTimeoutOmitsTimeoutFlag(t *testing.T) {
	tree := testutil.NewTestTree(t)
	tree.Case("cpu/fpu/fpu", "1.0", "1.0")
	h := newHarness(t, tree, func(c *Config) { c.Timeout = 0 })

	result, err := h.Batch(context.Background(), []string{"cpu/fpu/fpu"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	for _, arg := range result.Command {
		assert.NotContains(t, arg, "--timeout")
	}
	assert.Equal(t, "--compare", result.Command[len(result.Command)-2])
}

func TestBatchKilledChildIsFailure(t *testing.T) {
	tree := testutil.NewTestTree(t)
	tree.Case("cpu/fpu/fpu", "#kill", "")
	h := newHarness(t, tree)

	result, err := h.Batch(context.Background(), []string{"cpu/fpu/fpu"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, result.TimedOut)
	assert.Equal(t, 1, result.ExitCode)
}
