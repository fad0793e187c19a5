package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestNewWithWriter_ServiceAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("store-service", "warn", &buf)

	l.Info("dropped")
	assert.Empty(t, buf.String())

	l.Warn("kept")
	line := decodeLine(t, &buf)
	assert.Equal(t, "store-service", line["service"])
	assert.Equal(t, "kept", line["msg"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestContextIDsAreInjected(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("store-service", "info", &buf)

	ctx := WithCorrelationID(context.Background(), "corr-1")
	ctx = WithUserID(ctx, "user-9")
	l.InfoContext(ctx, "heart toggled")

	line := decodeLine(t, &buf)
	assert.Equal(t, "corr-1", line["correlation_id"])
	assert.Equal(t, "user-9", line["user_id"])
	assert.NotContains(t, line, "trace_id")
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	l := WithContext(WithCorrelationID(context.Background(), "abc"), base)
	l.Info("indexed")

	assert.Equal(t, "abc", decodeLine(t, &buf)["correlation_id"])
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, l, FromContext(NewContext(context.Background(), l)))
}
