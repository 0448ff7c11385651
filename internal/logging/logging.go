// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
)

// Settings are read from the environment, e.g. CONTENT_SYNC_LOG_LEVEL
type Settings struct {
	Level slog.Level
	// JSON selects the JSON handler; text is used for local runs
	JSON bool
}

// FromEnv reads <prefix>_LOG_LEVEL and <prefix>_LOG_FORMAT. The level falls
// back to LOG_LEVEL. Unknown values keep the defaults (info, json) and are
// returned as warnings for the caller to log once a logger exists.
func FromEnv(prefix string) (Settings, []string) {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()

	settings := Settings{Level: slog.LevelInfo, JSON: true}
	var warnings []string

	level := v.GetString("LOG_LEVEL")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if parsed, ok := ParseLevel(level); ok {
		settings.Level = parsed
	} else {
		warnings = append(warnings, "invalid log level "+level+", using info")
	}

	switch format := strings.ToLower(v.GetString("LOG_FORMAT")); format {
	case "", "json":
	case "text":
		settings.JSON = false
	default:
		warnings = append(warnings, "invalid log format "+format+", using json")
	}
	return settings, warnings
}

// ParseLevel accepts debug, info, warn/warning and error. Empty means info.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New builds a logger writing to w that adds trace_id and span_id to
// records logged with a sampled span in the context
func New(w io.Writer, s Settings) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.Level}
	var h slog.Handler
	if s.JSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(traceHandler{h})
}

type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}
