package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/tenant-auth/config"
	pgadapter "github.com/target/tenant-auth/internal/adapters/postgres"
	"github.com/target/tenant-auth/internal/adapters/reaper"
	"github.com/target/tenant-auth/internal/observability/statsd"
)

// Infrastructure holds the external connections opened for the enabled services.
type Infrastructure struct {
	DB      *sql.DB
	Redis   redis.UniversalClient
	Metrics *statsd.Client
}

// Close releases every open connection.
func (i *Infrastructure) Close() error {
	var errs []error
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if i.Metrics != nil {
		if err := i.Metrics.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close statsd: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ConnectInfrastructure opens only what the configured strategy and services need.
func ConnectInfrastructure(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{Metrics: BuildMetrics(logger, cfg.Observability.Metrics)}
	dbCfg := DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	if cfg.UsesRedis() {
		client, err := ConnectRedis(ctx, dbCfg)
		if err != nil {
			return nil, errors.Join(err, infra.Close())
		}
		infra.Redis = client
	}

	if cfg.UsesPostgres() {
		db, err := ConnectDB(ctx, dbCfg)
		if err != nil {
			return nil, errors.Join(err, infra.Close())
		}
		infra.DB = db
		if cfg.Postgres.RunMigrationsOnStart {
			if err := RunMigrations(ctx, db, logger); err != nil {
				return nil, errors.Join(err, infra.Close())
			}
		}
	}

	return infra, nil
}

// Run starts every enabled service and blocks until ctx is cancelled or one fails.
func Run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	logger.Info("starting services", "services", GetEnabledServices(cfg))

	infra, err := ConnectInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			logger.Warn("close infrastructure", "error", cerr)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.IsHTTPServerEnabled() {
		authenticator, err := BuildAuthenticator(gctx, AuthConfig{
			Auth:           cfg.Auth,
			RedisClient:    infra.Redis,
			RedisKeyPrefix: cfg.Redis.KeyPrefix,
			DB:             infra.DB,
			Metrics:        infra.Metrics,
			Logger:         logger,
		})
		if err != nil {
			return err
		}
		server := NewHTTPServer(HTTPServerConfig{
			Config:        cfg,
			Authenticator: authenticator,
			Roles:         BuildRoleMapper(cfg.Auth),
			Logger:        logger,
		})
		g.Go(func() error {
			return ServeHTTP(gctx, server, cfg.HTTP.ShutdownTimeout, logger)
		})
	}

	if cfg.IsReaperEnabled() {
		runner, err := reaper.NewRunner(reaper.RunnerOptions{
			Purger: pgadapter.NewSessionStore(infra.DB, pgadapter.Options{
				TempSessionTTL: cfg.Auth.TempSessionTTL,
				AuthSessionTTL: cfg.Auth.SessionTTL,
			}),
			Interval: cfg.Reaper.Interval,
			Logger:   logger,
			Metrics:  infra.Metrics,
		})
		if err != nil {
			return fmt.Errorf("create session reaper: %w", err)
		}
		g.Go(func() error { return runner.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("all services stopped")
	return nil
}
