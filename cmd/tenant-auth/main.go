package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/target/tenant-auth/config"
	"github.com/target/tenant-auth/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger := bootstrap.InitLogger(cfg.IsDev)

	logStartupInfo(ctx, logger, &cfg)

	return bootstrap.Run(ctx, &cfg, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	attrs := []any{
		"auth_mode", cfg.Auth.Mode,
		"session_strategy", cfg.Auth.Strategy,
		"origin", cfg.Auth.Origin,
		"enabled_services", bootstrap.GetEnabledServices(cfg),
		"dev", cfg.IsDev,
	}
	if cfg.UsesPostgres() {
		attrs = append(attrs, "db_host", cfg.Postgres.Host, "db_name", cfg.Postgres.Name)
	}
	logger.InfoContext(ctx, "starting tenant-auth", attrs...)
}
