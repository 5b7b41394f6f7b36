package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeJSON(buf, map[string]any{"x": 1}))
	var env envelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	require.True(t, env.Success)
	require.Empty(t, env.Error)
}

func TestWriteJSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeJSONError(buf, errors.New("bad thing")))
	var env envelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	require.False(t, env.Success)
	require.Equal(t, "bad thing", env.Error)
}

func TestCliError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := fail(3, "%w", inner)
	require.True(t, errors.Is(err, inner))
	require.Equal(t, 3, exitCode(err))
}

func TestExitCode_DefaultsToOne(t *testing.T) {
	require.Equal(t, 1, exitCode(errors.New("plain")))
}
