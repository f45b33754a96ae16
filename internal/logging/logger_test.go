package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_WritesJSONWithFields(t *testing.T) {
	old := log
	defer func() { log = old }()

	Init("debug", "json")
	var buf bytes.Buffer
	log.SetOutput(&buf)

	Error("commit failed", errors.New("boom"), Fields{"session_id": "s1"})

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "error", got["level"])
	assert.Equal(t, "commit failed", got["msg"])
	assert.Equal(t, "boom", got["error"])
	assert.Equal(t, "s1", got["session_id"])
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	old := log
	defer func() { log = old }()

	Init("chatty", "text")
	var buf bytes.Buffer
	log.SetOutput(&buf)

	Debug("hidden", nil)
	assert.Empty(t, buf.String())
	Info("shown", nil)
	assert.Contains(t, buf.String(), "shown")
}

func TestErrorWriter_LogsAtErrorLevel(t *testing.T) {
	old := log
	defer func() { log = old }()

	Init("info", "json")
	var buf bytes.Buffer
	log.SetOutput(&buf)

	n, err := ErrorWriter().Write([]byte("[Recovery] panic recovered\n"))
	require.NoError(t, err)
	assert.Equal(t, 27, n)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "error", got["level"])
	assert.Equal(t, "[Recovery] panic recovered", got["msg"])
}
