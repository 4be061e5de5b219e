package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/autotest/internal/locate"
	"github.com/roach88/autotest/internal/suite"
)

func TestExitError(t *testing.T) {
	err := NewExitError(ExitFailure, "3 test(s) failed")
	assert.Equal(t, "3 test(s) failed", err.Error())
	assert.Nil(t, err.Unwrap())

	wrapped := WrapExitError(ExitCommandError, "cannot run tests", locate.ErrNoTestTree)
	assert.Contains(t, wrapped.Error(), "cannot run tests: test tree missing")
	assert.ErrorIs(t, wrapped, locate.ErrNoTestTree)
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
		{"exit error", NewExitError(ExitCommandError, "setup"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewExitError(3, "child")), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "E_SETUP", errorCode(WrapExitError(ExitCommandError, "x", locate.ErrNoExecutable)))
	assert.Equal(t, "E_NO_TESTS", errorCode(WrapExitError(ExitCommandError, "x", suite.ErrNoCases)))
	assert.Equal(t, suite.ErrCodeInvalid, errorCode(WrapExitError(ExitCommandError, "x",
		&suite.LoadError{Code: suite.ErrCodeInvalid, Message: "empty"})))
	assert.Equal(t, "E_COMMAND", errorCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, "E_TEST_FAILED", errorCode(NewExitError(ExitFailure, "x")))
}

func TestWriteJSONIndented(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeJSON(buf, CLIResponse{Status: "ok", Data: map[string]int{"n": 1}}))
	assert.Contains(t, buf.String(), "\n  \"status\": \"ok\"")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}
