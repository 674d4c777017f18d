package transport

import (
	"time"

	"go.uber.org/zap"

	"ganeo/internal/gtag"
)

// LogSink writes every call to a zap logger. It never answers lookups.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns a sink logging at info level.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Gtag(command gtag.Command, args ...any) {
	s.logger.Info("gtag",
		zap.String("command", string(command)),
		zap.Any("args", Printable(args)))
}

// Printable returns args with functions replaced by "<func>" and times
// formatted as RFC 3339, so the result can be encoded as JSON.
func Printable(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = printable(a)
	}
	return out
}

func printable(v any) any {
	switch x := v.(type) {
	case gtag.LookupFunc, func(string), gtag.Callback:
		return "<func>"
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case gtag.Fields:
		return printableMap(x)
	case map[string]any:
		return printableMap(x)
	case []any:
		return Printable(x)
	}
	return v
}

func printableMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = printable(v)
	}
	return out
}
