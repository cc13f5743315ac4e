// Package obslog provides the structured logging sink that core packages
// accept as a constructor parameter, so callers can wire in whichever
// destination and level fit a given run without the core depending on a
// process-wide logger.
package obslog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the narrow logging surface the core depends on. A nil *Logger
// is valid and discards everything, so callers that don't care about
// observability never need to construct one.
type Logger struct {
	entry *logrus.Entry
}

// New builds a Logger at the given level ("debug", "info", "warn", "error").
// Output is JSON when stdout isn't a terminal, text otherwise, matching the
// convention of structured-logging setups across the example pack.
func New(level string) *Logger {
	base := logrus.New()
	if lvl, err := logrus.ParseLevel(level); err == nil {
		base.SetLevel(lvl)
	} else {
		base.SetLevel(logrus.InfoLevel)
	}
	if isTerminal(os.Stdout) {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Logger{entry: logrus.NewEntry(base)}
}

// Discard returns a Logger that drops every message, used as the default
// when a caller passes nil through the core.
func Discard() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{entry: logrus.NewEntry(base)}
}

func (l *Logger) orDiscard() *Logger {
	if l == nil {
		return Discard()
	}
	return l
}

func (l *Logger) WithField(key string, value any) *Logger {
	l = l.orDiscard()
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) WithFields(fields map[string]any) *Logger {
	l = l.orDiscard()
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *Logger) Debugf(format string, args ...any) { l.orDiscard().entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.orDiscard().entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.orDiscard().entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.orDiscard().entry.Errorf(format, args...) }

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
