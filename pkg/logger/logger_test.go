package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	core, logs := observer.New(level)
	prev := L
	L = zap.New(core)
	t.Cleanup(func() { L = prev })
	return logs
}

func TestInitLogger(t *testing.T) {
	prev := L
	t.Cleanup(func() { L = prev })

	require.NoError(t, InitLogger("debug", false))
	assert.True(t, L.Core().Enabled(zapcore.DebugLevel))

	// 非法级别回退到 info
	require.NoError(t, InitLogger("verbose", true))
	assert.False(t, L.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, L.Core().Enabled(zapcore.InfoLevel))
}

func TestConnectionHelpers(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Info("Connection Established", "123.456")
	Error("Message from 123.456 resulted in an unknown error")
	Message([]byte(`{"event":"pusher:ping"}`))

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "Connection Established", entries[0].Message)
	assert.Equal(t, "123.456", entries[0].ContextMap()["connection_id"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.NotContains(t, entries[1].ContextMap(), "connection_id")

	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
	assert.Equal(t, `{"event":"pusher:ping"}`, entries[2].ContextMap()["payload"])
}

func TestHelpersWithoutInit(t *testing.T) {
	prev := L
	L = zap.NewNop()
	t.Cleanup(func() { L = prev })

	assert.NotPanics(t, func() {
		Info("hello")
		Error("boom", "1.1")
		Message(nil)
	})
}
