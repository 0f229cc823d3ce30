package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var base = newLogger(os.Stderr, "info")

func newLogger(out io.Writer, level string) *logrus.Logger {
	l := logrus.New()
	l.Out = out
	l.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.Level = lvl
	return l
}

// Setup replaces the process logger. Unknown levels fall back to info.
func Setup(out io.Writer, level string) *logrus.Logger {
	base = newLogger(out, level)
	return base
}

// Base returns the process logger.
func Base() *logrus.Logger {
	return base
}

// With attaches a logger to ctx.
func With(ctx context.Context, log logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// From returns the request-scoped logger, or the process logger when none was attached.
func From(ctx context.Context) logrus.FieldLogger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(logrus.FieldLogger); ok {
			return l
		}
	}
	return base
}
