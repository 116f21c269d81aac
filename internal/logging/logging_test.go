package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("warn", &buf)
	require.NoError(t, err)

	l.Info("[test] hidden")
	l.Warn("[test] shown", "n", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[test] shown")
	assert.Contains(t, buf.String(), "n=3")

	_, err = New("loud", &buf)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"DEBUG":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
	assert.NotPanics(t, func() { l.With("a", 1).WithGroup("g").Error("x") })
}
