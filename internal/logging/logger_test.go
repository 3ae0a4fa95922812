package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestZapLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLoggerFrom(zap.New(core))

	l.Info("wallet changed", map[string]any{"tag": "eth-web3", "present": true})
	l.Debug("request", nil)

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "wallet changed", entries[0].Message)
	assert.Equal(t, "eth-web3", entries[0].ContextMap()["tag"])
	assert.Equal(t, true, entries[0].ContextMap()["present"])
}

func TestOrNoop(t *testing.T) {
	assert.IsType(t, NoopLogger{}, OrNoop(nil))

	l := NewZapLoggerFrom(zap.NewNop())
	assert.Same(t, l, OrNoop(l))
}
