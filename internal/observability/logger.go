package observability

import (
	"io"
	"log/slog"
	"strings"

	"github.com/couchcryptid/isar-water-etl/internal/config"
)

// NewLoggerTo builds a logger from LOG_LEVEL and LOG_FORMAT that writes to w
// and leaves the slog default untouched. Long-running commands use the shared
// stdout logger; single-shot commands whose stdout is their result log here.
func NewLoggerTo(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
