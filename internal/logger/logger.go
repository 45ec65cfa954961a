package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base    *zap.Logger
	sugared *zap.SugaredLogger
)

func init() {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	base = l
	sugared = l.Sugar()
}

// L returns the process wide logger.
func L() *zap.SugaredLogger {
	return sugared
}

// SetLevel changes the level of every logger handed out by L, including
// the ones already stored in package variables.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

func Level() zapcore.Level {
	return level.Level()
}

// Close flushes buffered entries.
func Close() {
	_ = base.Sync()
}
