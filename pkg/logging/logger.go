// Package logging provides the printf-style Logger used across opsboard and
// its zap-backed implementation.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/exploopio/opsboard/pkg/errors"
)

// Logger is the interface for logging in opsboard.
type Logger interface {
	// Debug logs a debug message
	Debug(format string, args ...interface{})

	// Info logs an info message
	Info(format string, args ...interface{})

	// Warn logs a warning message
	Warn(format string, args ...interface{})

	// Error logs an error message
	Error(format string, args ...interface{})
}

// Level represents the logging level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelSilent:
		return "silent"
	}
	return "unknown"
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelSilent:
		return zapcore.FatalLevel + 1
	}
	return zapcore.InfoLevel
}

// ParseLevel maps a level name to a Level. Matching is case-insensitive and
// accepts "trace" as debug and "warning" as warn.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "off", "none":
		return LevelSilent, nil
	}
	return LevelInfo, errors.Errorf(errors.KindConfig, "logging.ParseLevel", "unknown log level %q", s)
}

// Config configures a zap-backed logger.
type Config struct {
	Level Level

	// File receives log output when set. Otherwise logs go to stderr. The
	// terminal UI sets this so log lines do not draw over the screen.
	File string

	// JSON selects the JSON encoder instead of the console encoder.
	JSON bool

	// Name is attached to every entry.
	Name string
}

// ZapLogger implements Logger on top of a zap SugaredLogger.
type ZapLogger struct {
	sugar  *zap.SugaredLogger
	closer func() error
}

// New builds a ZapLogger from cfg.
func New(cfg Config) (*ZapLogger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var enc zapcore.Encoder
	if cfg.JSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	var (
		sink   zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
		closer                     = func() error { return nil }
	)
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, errors.E(errors.KindConfig, "logging.New", "open log file", err)
		}
		sink = zapcore.AddSync(f)
		closer = f.Close
	}

	core := zapcore.NewCore(enc, sink, cfg.Level.zapLevel())
	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	if cfg.Name != "" {
		zl = zl.Named(cfg.Name)
	}
	return &ZapLogger{sugar: zl.Sugar(), closer: closer}, nil
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(zl *zap.Logger) *ZapLogger {
	return &ZapLogger{
		sugar:  zl.WithOptions(zap.AddCallerSkip(1)).Sugar(),
		closer: func() error { return nil },
	}
}

// Debug logs a debug message.
func (l *ZapLogger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

// Info logs an info message.
func (l *ZapLogger) Info(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

// Warn logs a warning message.
func (l *ZapLogger) Warn(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

// Error logs an error message.
func (l *ZapLogger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With returns a logger that adds key-value pairs to every entry.
func (l *ZapLogger) With(keysAndValues ...interface{}) *ZapLogger {
	return &ZapLogger{sugar: l.sugar.With(keysAndValues...), closer: l.closer}
}

// Close flushes buffered entries and closes the log file, if any.
func (l *ZapLogger) Close() error {
	// Sync on stderr fails on some platforms; the file close error is the
	// one worth reporting.
	_ = l.sugar.Sync()
	return l.closer()
}

// NopLogger is a no-op logger that discards all messages.
type NopLogger struct{}

func (NopLogger) Debug(format string, args ...interface{}) {}
func (NopLogger) Info(format string, args ...interface{})  {}
func (NopLogger) Warn(format string, args ...interface{})  {}
func (NopLogger) Error(format string, args ...interface{}) {}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

// Ensure implementations satisfy the interface
var (
	_ Logger = (*ZapLogger)(nil)
	_ Logger = NopLogger{}
)
