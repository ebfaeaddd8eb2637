package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appCtx "github.com/baechuer/chatcpe-service/internal/pkg/context"
)

func TestInitWithWriter_JSONFormat_RespectsLevel(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "warn")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	Logger.Info().Msg("hidden")
	assert.Equal(t, 0, buf.Len())

	Logger.Warn().Msg("shown")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "warn", line["level"])
}

func TestWithCtx_AddsRequestID(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	ctx := appCtx.WithRequestID(context.Background(), "rid-7")
	WithCtx(ctx).Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "rid-7", line["request_id"])
}

func TestWithCtx_NoRequestID(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	WithCtx(context.Background()).Info().Msg("plain")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	_, ok := line["request_id"]
	assert.False(t, ok)
}

func TestWithCtx_AddsUserID(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	ctx := appCtx.WithUserID(appCtx.WithRequestID(context.Background(), "rid-8"), 42)
	WithCtx(ctx).Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "rid-8", line["request_id"])
	assert.Equal(t, float64(42), line["user_id"])
	assert.Equal(t, "chatcpe", line["service"])
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, "chatty", "json")

	lg.Debug().Msg("hidden")
	assert.Equal(t, 0, buf.Len())
	lg.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
