package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestConfigureJSON(t *testing.T) {
	prev := L()
	t.Cleanup(func() { def.Store(prev) })

	var buf bytes.Buffer
	Configure(Options{Level: "warn", JSON: true, Output: &buf})
	L().Info("dropped")
	L().Warn("kept", "transform", "upper")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "upper", rec["transform"])
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "debug")
	t.Setenv(EnvJSON, "true")
	assert.Equal(t, Options{Level: "debug", JSON: true}, FromEnv())

	t.Setenv(EnvJSON, "nope")
	assert.False(t, FromEnv().JSON)
}
