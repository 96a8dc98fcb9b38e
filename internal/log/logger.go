// Package log provides the process-wide structured logger. It is a thin
// facade over zap with the loosely-typed key-value call style the rest of
// the codebase uses.
package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents log severity levels
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger defines the structured logging methods used across the tool.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	SetLevel(level Level)
}

// zapLogger is the default Logger implementation.
type zapLogger struct {
	mu    sync.Mutex
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

var (
	defaultLogger *zapLogger
	once          sync.Once
)

// New creates a logger writing human-readable output to stderr.
func New(level Level) Logger {
	atomic := zap.NewAtomicLevelAt(level.zapLevel())
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = atomic
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	base, err := cfg.Build(zap.WithCaller(false))
	if err != nil {
		base = zap.NewNop()
	}
	return &zapLogger{level: atomic, sugar: base.Sugar()}
}

// Default returns the shared logger instance.
func Default() Logger {
	once.Do(func() {
		defaultLogger = New(InfoLevel).(*zapLogger)
	})
	return defaultLogger
}

func (l *zapLogger) Debug(msg string, args ...interface{}) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...interface{})  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...interface{})  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...interface{}) { l.sugar.Errorw(msg, args...) }

// SetLevel adjusts the minimum severity at runtime.
func (l *zapLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level.SetLevel(level.zapLevel())
}
