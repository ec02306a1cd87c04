// Package logger wraps logrus with the project's field conventions:
// JSON output, level from LOG_LEVEL, and per-component child entries.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Fields aliases logrus.Fields so callers don't import logrus directly.
type Fields = logrus.Fields

// Log wraps logrus.Logger.
type Log struct {
	*logrus.Logger
}

// Entry wraps logrus.Entry.
type Entry struct {
	*logrus.Entry
}

// New builds a logger writing JSON to stdout. The level comes from the
// LOG_LEVEL environment variable, defaulting to info.
func New() *Log {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	level := logrus.InfoLevel
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if parsed, err := logrus.ParseLevel(strings.ToLower(s)); err == nil {
			level = parsed
		}
	}
	l.SetLevel(level)

	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	return &Log{Logger: l}
}

// Discard builds a logger that drops everything. For tests.
func Discard() *Log {
	l := logrus.New()
	l.SetOutput(devNull{})
	return &Log{Logger: l}
}

// WithComponent tags a child entry with the owning component name.
func (l *Log) WithComponent(component string) *Entry {
	return &Entry{Entry: l.Logger.WithField("component", component)}
}

func (l *Log) WithFields(fields Fields) *Entry {
	return &Entry{Entry: l.Logger.WithFields(fields)}
}

func (e *Entry) WithFields(fields Fields) *Entry {
	return &Entry{Entry: e.Entry.WithFields(fields)}
}

type devNull struct{}

func (devNull) Write(p []byte) (int, error) { return len(p), nil }
