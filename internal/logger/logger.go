package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents a logging level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat represents the output encoding.
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// Config holds logger configuration.
type Config struct {
	Level      LogLevel  `yaml:"level" json:"level"`
	Format     LogFormat `yaml:"format" json:"format"`
	Output     string    `yaml:"output" json:"output"` // stdout, stderr, file
	Filename   string    `yaml:"filename" json:"filename"`
	MaxSize    int       `yaml:"max_size" json:"max_size"` // MB per file
	MaxAge     int       `yaml:"max_age" json:"max_age"`   // days to retain
	MaxBackups int       `yaml:"max_backups" json:"max_backups"`
	Compress   bool      `yaml:"compress" json:"compress"`
}

// DefaultConfig is the configuration used when none is provided.
var DefaultConfig = Config{
	Level:      LevelInfo,
	Format:     FormatText,
	Output:     "stdout",
	MaxSize:    100,
	MaxAge:     30,
	MaxBackups: 10,
	Compress:   true,
}

// Logger is the structured logging interface used across the service.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// StructuredLogger implements Logger on top of logrus.
type StructuredLogger struct {
	entry *logrus.Entry
}

// NewLogger creates a logger from the given configuration.
func NewLogger(config Config) Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(string(config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if config.Format == FormatJSON {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	l.SetOutput(buildOutput(config))

	return &StructuredLogger{entry: logrus.NewEntry(l)}
}

func buildOutput(config Config) io.Writer {
	switch config.Output {
	case "stderr":
		return os.Stderr
	case "file":
		filename := config.Filename
		if filename == "" {
			filename = "logs/qsim.log"
		}
		if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    config.MaxSize,
			MaxAge:     config.MaxAge,
			MaxBackups: config.MaxBackups,
			Compress:   config.Compress,
		}
	default:
		return os.Stdout
	}
}

// Debug logs at debug level.
func (l *StructuredLogger) Debug(msg string, fields ...interface{}) {
	l.withKV(fields...).Debug(msg)
}

// Info logs at info level.
func (l *StructuredLogger) Info(msg string, fields ...interface{}) {
	l.withKV(fields...).Info(msg)
}

// Warn logs at warn level.
func (l *StructuredLogger) Warn(msg string, fields ...interface{}) {
	l.withKV(fields...).Warn(msg)
}

// Error logs at error level.
func (l *StructuredLogger) Error(msg string, fields ...interface{}) {
	l.withKV(fields...).Error(msg)
}

// Fatal logs at fatal level and exits.
func (l *StructuredLogger) Fatal(msg string, fields ...interface{}) {
	l.withKV(fields...).Fatal(msg)
}

// WithField returns a logger with an extra field attached.
func (l *StructuredLogger) WithField(key string, value interface{}) Logger {
	return &StructuredLogger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a logger with extra fields attached.
func (l *StructuredLogger) WithFields(fields map[string]interface{}) Logger {
	return &StructuredLogger{entry: l.entry.WithFields(fields)}
}

// withKV interprets a variadic key/value list the way logrus fields do.
func (l *StructuredLogger) withKV(fields ...interface{}) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	fm := make(logrus.Fields, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		fm[key] = fields[i+1]
	}
	return l.entry.WithFields(fm)
}
