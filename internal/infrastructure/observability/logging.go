package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogConfig selects the slog handler installed by InitLogger.
type LogConfig struct {
	// Output defaults to stdout.
	Output io.Writer
	Level  string
	// Format is "json" or "text"; anything else falls back to text.
	Format string
	// Service and Version are attached to every record when set.
	Service string
	Version string
}

// InitLogger builds the process logger and makes it the slog default.
func InitLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewTextHandler(out, opts)
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	}

	var attrs []slog.Attr
	if cfg.Service != "" {
		attrs = append(attrs, slog.String("service", cfg.Service))
	}
	if cfg.Version != "" {
		attrs = append(attrs, slog.String("version", cfg.Version))
	}
	if len(attrs) > 0 {
		h = h.WithAttrs(attrs)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// parseLevel accepts slog's own level names plus "warning". Unknown input
// logs at info.
func parseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
