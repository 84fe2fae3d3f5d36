package logger

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSentryLevel(t *testing.T) {
	tests := []struct {
		name  string
		level zapcore.Level
		want  sentry.Level
	}{
		{"warn", zapcore.WarnLevel, sentry.LevelWarning},
		{"error", zapcore.ErrorLevel, sentry.LevelError},
		{"fatal", zapcore.FatalLevel, sentry.LevelFatal},
		{"info", zapcore.InfoLevel, sentry.LevelInfo},
		{"debug", zapcore.DebugLevel, sentry.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SentryLevel(tt.level))
		})
	}
}

func TestNewWithoutSentry(t *testing.T) {
	log, flush, err := New("")
	require.NoError(t, err)
	require.NotNil(t, log)

	log.Info("logger works")
	flush()
}
