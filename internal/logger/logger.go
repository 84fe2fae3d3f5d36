package logger

import (
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production logger. Warnings and errors are also reported to Sentry when dsn is set.
// The returned flush func must be called before exit.
func New(dsn string) (*zap.SugaredLogger, func(), error) {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		return nil, nil, err
	}

	flush := func() {
		_ = zapLogger.Sync()
	}

	if dsn != "" {
		sentryOption, err := Sentry(dsn)
		if err != nil {
			return nil, nil, err
		}

		zapLogger = zapLogger.WithOptions(sentryOption)
		flush = func() {
			_ = zapLogger.Sync()
			sentry.Flush(10 * time.Second)
		}
	}

	return zapLogger.Sugar(), flush, nil
}

func Sentry(dsn string) (zap.Option, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn: dsn,
	})
	if err != nil {
		return nil, err
	}

	return zap.Hooks(func(entry zapcore.Entry) error {
		if entry.Level < zapcore.WarnLevel {
			return nil
		}

		sentry.CaptureEvent(&sentry.Event{
			Timestamp: entry.Time,
			Logger:    entry.LoggerName,
			Message:   entry.Message,
			Extra: map[string]any{
				"Stack":  entry.Stack,
				"Caller": entry.Caller.String(),
			},
			Level: SentryLevel(entry.Level),
		})

		return nil
	}), nil
}

func SentryLevel(zapLevel zapcore.Level) sentry.Level {
	switch zapLevel {
	case zapcore.ErrorLevel, zapcore.DPanicLevel:
		return sentry.LevelError
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.PanicLevel, zapcore.FatalLevel:
		return sentry.LevelFatal
	}

	return sentry.LevelInfo
}
