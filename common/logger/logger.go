package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Package logger provides leveled logging for the retrieval engine on top
// of zap. Components call the package-level printf helpers; tests swap in
// a silent or observed logger via Replace.

var current atomic.Pointer[zap.SugaredLogger]

func init() {
	l, err := zap.NewProduction(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewNop()
	}
	current.Store(l.Sugar())
}

// Replace swaps the active logger and returns the previous one.
func Replace(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	return current.Swap(l)
}

// SetLevel rebuilds the active logger at the given minimum level.
func SetLevel(level zapcore.Level) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return
	}
	current.Store(l.Sugar())
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	current.Load().Debugf(format, args...)
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	current.Load().Infof(format, args...)
}

// Warnf logs a warning message.
func Warnf(format string, args ...interface{}) {
	current.Load().Warnf(format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	current.Load().Errorf(format, args...)
}
