package observability

import (
	"log/slog"

	"github.com/couchcryptid/event-impact-service/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const serviceName = "event-impact"

// NewLogger builds the service logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *config.Config) *slog.Logger {
	return withService(sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat))
}

func withService(l *slog.Logger) *slog.Logger {
	return l.With("service", serviceName)
}
