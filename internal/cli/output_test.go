package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatterSuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]int{"count": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestFormatterErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Error("SCHEMA", "opacity out of range", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SCHEMA", resp.Error.Code)
	assert.Equal(t, "opacity out of range", resp.Error.Message)
}

func TestFormatterErrorWithDataCarriesBoth(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	payload := map[string][]string{"issues": {"DUPLICATE_FRAME_ID", "DEEP_NESTING"}}
	require.NoError(t, f.ErrorWithData("DUPLICATE_FRAME_ID", "duplicate frame id", payload))

	var resp struct {
		Status string              `json:"status"`
		Data   map[string][]string `json:"data"`
		Error  *CLIError           `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DUPLICATE_FRAME_ID", resp.Error.Code)
	assert.Len(t, resp.Data["issues"], 2)
}

func TestFormatterErrorText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Error("SCHEMA", "opacity out of range", nil))
	assert.Contains(t, buf.String(), "Error [SCHEMA]: opacity out of range")
}

func TestVerboseLogGatedAndRouted(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut}

	f.VerboseLog("quiet %d", 1)
	assert.Empty(t, errOut.String())

	f.Verbose = true
	f.VerboseLog("loud %d", 2)
	assert.Equal(t, "loud 2\n", errOut.String())
	assert.Empty(t, out.String(), "diagnostics never mix into JSON output")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitFailure, "inner"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

func TestExitErrorUnwrap(t *testing.T) {
	cause := errors.New("no such file")
	err := WrapExitError(ExitCommandError, "cannot load document", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cannot load document: no such file", err.Error())
}
