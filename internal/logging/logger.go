package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Fields map[string]interface{}

var log = newLogger("info", "json")

func newLogger(level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	if strings.ToLower(format) == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l
}

// Init replaces the process logger. Unknown levels fall back to info and
// any format other than "text" logs JSON.
func Init(level, format string) {
	log = newLogger(level, format)
}

type levelWriter logrus.Level

func (w levelWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimRight(string(p), "\n"); msg != "" {
		log.Log(logrus.Level(w), msg)
	}
	return len(p), nil
}

// ErrorWriter adapts the process logger to an io.Writer logging each write
// at error level, e.g. for gin's panic recovery output.
func ErrorWriter() io.Writer { return levelWriter(logrus.ErrorLevel) }

func entry(fields Fields) *logrus.Entry {
	return log.WithFields(logrus.Fields(fields))
}

// Debug logs a diagnostic message with optional fields.
func Debug(msg string, fields Fields) {
	entry(fields).Debug(msg)
}

// Info logs an informational message with optional fields.
func Info(msg string, fields Fields) {
	entry(fields).Info(msg)
}

// Warn logs a recoverable problem.
func Warn(msg string, fields Fields) {
	entry(fields).Warn(msg)
}

// Error logs an error message and includes the error text in the fields.
func Error(msg string, err error, fields Fields) {
	e := entry(fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(msg)
}

// Fatal logs a fatal error and exits the process.
func Fatal(msg string, err error, fields Fields) {
	e := entry(fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Fatal(msg)
}
