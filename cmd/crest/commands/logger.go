package commands

import (
	"context"
	"io"
	"sort"

	"github.com/charmbracelet/log"
)

type ctxKey int

const loggerKey ctxKey = 0

// NewLogger creates the CLI logger. Verbose lowers the level to debug, which
// also turns on request logging in the client.
func NewLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          "crest",
	})
}

// WithLogger attaches l to ctx.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
			return l
		}
	}

	return log.Default()
}

// logAdapter implements crest.Logger on top of charmbracelet/log.
type logAdapter struct {
	logger *log.Logger
}

func newLogAdapter(l *log.Logger) *logAdapter {
	return &logAdapter{logger: l}
}

func (a *logAdapter) Debug(msg string, fields map[string]interface{}) {
	a.logger.Debug(msg, keyvals(fields)...)
}

func (a *logAdapter) Info(msg string, fields map[string]interface{}) {
	a.logger.Info(msg, keyvals(fields)...)
}

func (a *logAdapter) Warn(msg string, fields map[string]interface{}) {
	a.logger.Warn(msg, keyvals(fields)...)
}

func (a *logAdapter) Error(msg string, fields map[string]interface{}) {
	a.logger.Error(msg, keyvals(fields)...)
}

// keyvals flattens fields in key order.
func keyvals(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	out := make([]interface{}, 0, 2*len(keys))
	for _, key := range keys {
		out = append(out, key, fields[key])
	}

	return out
}
