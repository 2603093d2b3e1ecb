package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger .
type Logger interface {
	Debugf(format string, a ...interface{})
	Infof(format string, a ...interface{})
	Warnf(format string, a ...interface{})
	Errorf(format string, a ...interface{})
	Fatalf(format string, a ...interface{})
}

type defaultLogger struct {
	entry *logrus.Entry
}

// NewLogger returns a logger tagged with the given module name.
func NewLogger(moduleName string) Logger {
	return &defaultLogger{
		entry: logrus.WithField("module", moduleName),
	}
}

// SetLogLevel .
func SetLogLevel(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(l)
	return nil
}

// SetLogPath redirects log output to the given file. An empty path keeps the
// default stderr output.
func SetLogPath(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		return err
	}
	logrus.SetOutput(f)
	return nil
}

func (l *defaultLogger) Debugf(format string, a ...interface{}) {
	l.entry.Debugf(format, a...)
}

func (l *defaultLogger) Infof(format string, a ...interface{}) {
	l.entry.Infof(format, a...)
}

func (l *defaultLogger) Warnf(format string, a ...interface{}) {
	l.entry.Warnf(format, a...)
}

func (l *defaultLogger) Errorf(format string, a ...interface{}) {
	l.entry.Errorf(format, a...)
}

func (l *defaultLogger) Fatalf(format string, a ...interface{}) {
	l.entry.Fatalf(format, a...)
}
