package core

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the interface for logging in Emerald.
// Every package logs through it; LogrusLogger is the production implementation.
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

// FieldLogger is a Logger that can carry structured fields.
type FieldLogger interface {
	Logger
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// WithField attaches a field when the logger supports it and returns the
// logger unchanged otherwise.
func WithField(l Logger, key string, value interface{}) Logger {
	if fl, ok := l.(FieldLogger); ok {
		return fl.WithField(key, value)
	}
	return l
}

// WithFields attaches all fields when the logger supports them and returns
// the logger unchanged otherwise.
func WithFields(l Logger, fields map[string]interface{}) Logger {
	if fl, ok := l.(FieldLogger); ok {
		return fl.WithFields(fields)
	}
	return l
}

// LogConfig configures the logrus-backed logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`   // rotated log file; empty logs to stderr only

	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:      "info",
		Format:     "text",
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 30,
	}
}

// LogrusLogger implements Logger on top of logrus.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger builds a logger from cfg. When cfg.File is set, output is
// rotated by lumberjack and also written to stderr.
func NewLogrusLogger(cfg *LogConfig) (*LogrusLogger, error) {
	if cfg == nil {
		cfg = DefaultLogConfig()
	}

	l := logrus.New()

	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		l.SetOutput(io.MultiWriter(os.Stderr, rotator))
	} else {
		l.SetOutput(os.Stderr)
	}

	return &LogrusLogger{entry: logrus.NewEntry(l)}, nil
}

// SetOutput redirects log output.
func (l *LogrusLogger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}

// Logrus returns the underlying logrus logger.
func (l *LogrusLogger) Logrus() *logrus.Logger {
	return l.entry.Logger
}

func (l *LogrusLogger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *LogrusLogger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *LogrusLogger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *LogrusLogger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// WithField returns a child logger carrying key=value on every entry.
func (l *LogrusLogger) WithField(key string, value interface{}) Logger {
	return &LogrusLogger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a child logger carrying all fields.
func (l *LogrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// NopLogger is a no-op logger that discards all messages.
type NopLogger struct{}

func (l *NopLogger) Debug(format string, args ...interface{}) {}
func (l *NopLogger) Info(format string, args ...interface{})  {}
func (l *NopLogger) Warn(format string, args ...interface{})  {}
func (l *NopLogger) Error(format string, args ...interface{}) {}

// Ensure implementations satisfy the interface
var (
	_ FieldLogger = (*LogrusLogger)(nil)
	_ Logger      = (*NopLogger)(nil)
)
