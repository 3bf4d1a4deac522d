package logger

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.log")
	require.NoError(t, Init(Config{Level: "debug", File: path}))
	t.Cleanup(func() { _ = Init(Config{}) })

	Info("file logging enabled")
	assert.FileExists(t, path)
}

func TestKeyValuesAreWritten(t *testing.T) {
	require.NoError(t, Init(Config{Level: "info"}))
	t.Cleanup(func() { _ = Init(Config{}) })

	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("hidden", "k", "v")
	Warn("habit toggled", "habit_id", "abc", "completed", true)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "habit toggled")
	assert.Contains(t, out, "habit_id=abc")
	assert.Contains(t, out, "completed=true")
}
