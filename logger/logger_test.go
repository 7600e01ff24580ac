package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{name: "JSON output mode", jsonOutput: true},
		{name: "Console output mode", jsonOutput: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := Logger
			t.Cleanup(func() { Logger = prev; JSONOutput = false })

			require.NoError(t, Initialize(tt.jsonOutput))
			assert.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
		})
	}
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(zapcore.WarnLevel) })

	SetLevel(zapcore.DebugLevel)
	assert.True(t, level.Enabled(zapcore.DebugLevel))

	SetLevel(zapcore.ErrorLevel)
	assert.False(t, level.Enabled(zapcore.WarnLevel))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"loud", zapcore.WarnLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(0))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(1))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(2))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(-1))

	assert.True(t, ShouldLogTrace(3))
	assert.False(t, ShouldLogTrace(2))
	assert.Equal(t, "Info (-v)", LevelName(1))
	assert.Equal(t, "Trace (-vvv)", LevelName(5))
	assert.Equal(t, "Unknown", LevelName(-2))
}

func TestCleanupWithNilLogger(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	Logger = nil
	assert.NotPanics(t, Cleanup)
	assert.NotPanics(t, func() { Warnw("ignored") })
}

func TestComponentLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Logger
	t.Cleanup(func() { Logger = prev })
	Logger = zap.New(core).Sugar()

	ComponentLogger("model").Warnw("no ISA parent", FieldEntity, "(0,1,104)")
	ChildLogger(Logger, FieldPath, "g.tygra").Infow("loaded", FieldCount, 3)
	OrNop(nil).Errorw("dropped")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "model", entries[0].LoggerName)
	assert.Equal(t, "(0,1,104)", entries[0].ContextMap()[FieldEntity])
	assert.Equal(t, "g.tygra", entries[1].ContextMap()[FieldPath])
	assert.EqualValues(t, 3, entries[1].ContextMap()[FieldCount])
}
