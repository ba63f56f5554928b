package helper

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := NewPrettyHandler(buf, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: level},
	})
	return slog.New(handler), buf
}

func TestPrettyHandler(t *testing.T) {
	color.NoColor = true

	t.Run("Record is printed with time, level, message and attributes", func(t *testing.T) {
		logger, buf := newBufferedLogger(slog.LevelInfo)
		logger.Info("Retrieved bundles", slog.Int("bundles", 3), slog.Bool("fallback", false))

		out := buf.String()
		assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\.\d{3}\] INFO: Retrieved bundles `, out, "Expected time, level and message first")
		assert.Contains(t, out, `"bundles": 3`)
		assert.Contains(t, out, `"fallback": false`)
	})

	t.Run("Records below the level are dropped", func(t *testing.T) {
		logger, buf := newBufferedLogger(slog.LevelWarn)
		logger.Info("Ingested argument")
		logger.Debug("Dropped candidate")
		assert.Empty(t, buf.String())

		logger.Warn("Vector branch degraded", "reason", "timeout")
		assert.Contains(t, buf.String(), "WARN: Vector branch degraded")
		assert.Contains(t, buf.String(), `"reason": "timeout"`)
	})

	t.Run("Attributes of With are printed with every record", func(t *testing.T) {
		logger, buf := newBufferedLogger(slog.LevelDebug)
		branchLogger := logger.With("branch", "graph")
		branchLogger.Debug("Expanded issue", "hops", 2)
		branchLogger.Debug("Expanded issue", "hops", 1)

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n}\n"))
		require.Len(t, lines, 2, "Expected two records")
		for _, line := range lines {
			assert.Contains(t, string(line), `"branch": "graph"`)
		}
	})

	t.Run("Record attributes override With attributes", func(t *testing.T) {
		logger, buf := newBufferedLogger(slog.LevelInfo)
		logger.With("state", "INIT").Info("Entered state", "state", "DONE")

		assert.Contains(t, buf.String(), `"state": "DONE"`)
		assert.NotContains(t, buf.String(), `"state": "INIT"`)
	})

	t.Run("Groups keep the output flat", func(t *testing.T) {
		logger, buf := newBufferedLogger(slog.LevelInfo)
		logger.WithGroup("request").Info("Handled request", "status", 200)

		assert.Contains(t, buf.String(), `"status": 200`)
	})

	t.Run("Handler enabled follows the configured level", func(t *testing.T) {
		handler := NewPrettyHandler(&bytes.Buffer{}, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{Level: slog.LevelError}})
		assert.False(t, handler.Enabled(context.Background(), slog.LevelWarn))
		assert.True(t, handler.Enabled(context.Background(), slog.LevelError))
	})
}
