package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	InitLoggerWithWriter(NewConfig(level, LogFormatJSON, "nexumi-test", "1.2.3", "test", false), &buf)
	return &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		lines = append(lines, entry)
	}
	return lines
}

func TestJSONLogging_BaseAttributes(t *testing.T) {
	buf := captureJSON(t, LogLevelInfo)

	Info("listing sold", "listing_id", "l1", "price", 120)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "nexumi-test", entry[AttrKeyService])
	assert.Equal(t, "1.2.3", entry[AttrKeyVersion])
	assert.Equal(t, "test", entry[AttrKeyEnvironment])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "listing sold", entry["msg"])
	assert.Equal(t, float64(120), entry["price"])
}

func TestLevelFiltering(t *testing.T) {
	buf := captureJSON(t, LogLevelWarning)

	Debug("hidden")
	Info("hidden")
	Warn("shown")
	Error("shown")

	assert.Len(t, decodeLines(t, buf), 2)
}

func TestFromContext_ScopedAttributes(t *testing.T) {
	buf := captureJSON(t, LogLevelDebug)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithPlayerID(ctx, "p-42")
	ctx = WithSessionID(ctx, "sess-9")
	FromContext(ctx).Debug("purchase committed")
	FromContext(context.Background()).Debug("bare")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "req-1", lines[0][AttrKeyRequestID])
	assert.Equal(t, "p-42", lines[0][AttrKeyPlayerID])
	assert.Equal(t, "sess-9", lines[0][AttrKeySessionID])
	assert.NotContains(t, lines[1], AttrKeyRequestID)
	assert.NotContains(t, lines[1], AttrKeyPlayerID)
}

func TestContextAccessors(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "", GetRequestID(context.Background()))
	assert.Equal(t, "", SessionIDFromContext(context.Background()))

	id := GenerateRequestID()
	assert.Len(t, id, 36)
	assert.Equal(t, id, GetRequestID(WithRequestID(context.Background(), id)))
}

func TestConfig(t *testing.T) {
	cfg := NewConfig("", "TEXT", "", "", "", false)

	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, DefaultVersion, cfg.Version)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
	assert.False(t, cfg.IsJSON())
	assert.Len(t, cfg.BaseAttributes(), 2, "empty environment is omitted")

	assert.Equal(t, slog.LevelError, NewConfig("ERROR", "", "", "", "", false).LogLevel())
	assert.True(t, NewConfig("", "Json", "", "", "", false).IsJSON())
}
