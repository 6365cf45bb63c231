package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextLogger(t *testing.T) {
	ctx := context.Background()

	l1 := Ctx(ctx)
	require.NotNil(t, l1)
	assert.Equal(t, Default(), l1)

	var buf bytes.Buffer
	custom := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx = With(ctx, custom)
	assert.Equal(t, custom, Ctx(ctx))

	Ctx(ctx).InfoContext(ctx, "run stored", slog.String("id", "abc"))
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "run stored", line["msg"])
	assert.Equal(t, "abc", line["id"])
}

func TestSetDefaultLogLevel(t *testing.T) {
	defer SetDefaultLogLevel(slog.LevelInfo)

	ctx := context.Background()
	assert.False(t, Default().Enabled(ctx, slog.LevelDebug))
	SetDefaultLogLevel(slog.LevelDebug)
	assert.True(t, Default().Enabled(ctx, slog.LevelDebug))
}
