package logging

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

func jsonLogger(t *testing.T, level slog.Level) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestSlogLogger_RespectsLevel(t *testing.T) {
	log, buf := jsonLogger(t, slog.LevelInfo)
	ctx := context.Background()

	log.Debug(ctx, "seed skipped")
	log.Info(ctx, "course added", "id", 7)
	log.Warn(ctx, "notification failed", "to", "alice@example.com")
	log.Error(ctx, "store unavailable")

	recs := records(t, buf)
	require.Len(t, recs, 3)

	assert.Equal(t, "INFO", recs[0]["level"])
	assert.Equal(t, "course added", recs[0]["msg"])
	assert.EqualValues(t, 7, recs[0]["id"])
	assert.Equal(t, "WARN", recs[1]["level"])
	assert.Equal(t, "alice@example.com", recs[1]["to"])
	assert.Equal(t, "ERROR", recs[2]["level"])
}

func TestSlogLogger_WithKeepsParentClean(t *testing.T) {
	log, buf := jsonLogger(t, slog.LevelDebug)
	ctx := context.Background()

	child := log.With("component", "sync")
	child.Info(ctx, "mirror written", "users", 2)
	log.Info(ctx, "plain")

	recs := records(t, buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "sync", recs[0]["component"])
	assert.EqualValues(t, 2, recs[0]["users"])
	assert.NotContains(t, recs[1], "component")
}

func TestNewDiscard(t *testing.T) {
	log := NewDiscard()
	assert.NotPanics(t, func() {
		log.With("k", "v").Error(context.TODO(), "dropped")
	})
}
