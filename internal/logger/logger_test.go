package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLevels(t *testing.T) {
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown", "device", "cpu")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"device":"cpu"`)
	assert.True(t, log.Enabled(slog.LevelError))
	assert.False(t, log.Enabled(slog.LevelDebug))
}

func TestWithAndGroup(t *testing.T) {
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo).With("op", "linear").WithGroup("shape")
	log.Info("dispatch", "rows", 4)

	assert.Contains(t, buf.String(), `"op":"linear"`)
	assert.Contains(t, buf.String(), `"shape":{"rows":4}`)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("nothing")
	assert.False(t, log.Enabled(slog.LevelError))
}

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelDebug)
	log.WithGroup("mem").Debug("allocated", "bytes", 64, "note", "host staging")

	out := buf.String()
	assert.Contains(t, out, "allocated")
	assert.Contains(t, out, "mem.bytes=64")
	assert.Contains(t, out, `mem.note="host staging"`)
}

func TestPrettyHandlerEmptyGroup(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	assert.Same(t, h, h.WithGroup(""))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewFormat(t *testing.T) {
	for _, format := range []string{"", FormatText, FormatJSON, FormatPretty, "JSON"} {
		log, err := NewFormat(&bytes.Buffer{}, format, slog.LevelInfo)
		require.NoError(t, err, format)
		assert.NotNil(t, log)
	}

	_, err := NewFormat(&bytes.Buffer{}, "xml", slog.LevelInfo)
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), JSON(&buf, slog.LevelInfo))
	FromContext(ctx).Info("via context")
	assert.Contains(t, buf.String(), "via context")
	assert.NotNil(t, FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
