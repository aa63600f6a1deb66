package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conceptgraph/internal/graph"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(DeleteResult{Deleted: "/concept/en/dog"})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"deleted": "/concept/en/dog"}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("INTEGRITY", "delete refused", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTEGRITY", resp.Error.Code)
	assert.Equal(t, "delete refused", resp.Error.Message)
	assert.Nil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success(DeleteResult{Deleted: "/concept/en/dog"})
	require.NoError(t, err)
	assert.Equal(t, "Deleted /concept/en/dog\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("VALIDATION", "unknown node type", map[string]string{"uri": "/widget/x"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [VALIDATION]")
	assert.Contains(t, buf.String(), "unknown node type")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	err := formatter.Error("VALIDATION", "unknown node type", map[string]string{"uri": "/widget/x"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Using %s backend", "sqlite")

			assert.Empty(t, buf.String())
			if tt.wantLog {
				assert.Equal(t, "Using sqlite backend\n", errBuf.String())
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"integrity", graph.NewIntegrityError("/concept/en/dog", "in use"), "INTEGRITY", ExitFailure},
		{"not found", graph.NewNotFoundError("/concept/en/cat"), "NOT_FOUND", ExitFailure},
		{"validation", graph.NewValidationError("", "bad weight"), "VALIDATION", ExitFailure},
		{"backend", graph.NewBackendError("query", errors.New("connection refused")), "BACKEND_UNAVAILABLE", ExitCommandError},
		{"wrapped backend", fmt.Errorf("harvest: %w", graph.NewBackendError("query", errors.New("eof"))), "BACKEND_UNAVAILABLE", ExitCommandError},
		{"plain", errors.New("boom"), ErrCodeGeneric, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			err := formatter.Fail("operation failed", tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.ErrorIs(t, err, tt.err)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, "operation failed")
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad config")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "open", errors.New("x")))))
}

func TestExitError_Message(t *testing.T) {
	assert.Equal(t, "bad config", NewExitError(ExitCommandError, "bad config").Error())
	assert.Equal(t, "open: disk full", WrapExitError(ExitCommandError, "open", errors.New("disk full")).Error())
}
