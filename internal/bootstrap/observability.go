package bootstrap

import (
	"log/slog"

	"github.com/target/tenant-auth/config"
	"github.com/target/tenant-auth/internal/observability/statsd"
)

// BuildMetrics returns the StatsD client. A disabled or failing configuration
// yields an inert client so callers never need a nil check.
func BuildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		inert, _ := statsd.NewClient(statsd.Config{Logger: logger})
		return inert
	}
	return client
}
