package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/tenant-auth/config"
	"github.com/target/tenant-auth/internal/adapters/authroles"
	"github.com/target/tenant-auth/internal/adapters/devauth"
	"github.com/target/tenant-auth/internal/adapters/oidc"
	pgadapter "github.com/target/tenant-auth/internal/adapters/postgres"
	redisadapter "github.com/target/tenant-auth/internal/adapters/redis"
	"github.com/target/tenant-auth/internal/cryptoutil"
	"github.com/target/tenant-auth/internal/observability/statsd"
	"github.com/target/tenant-auth/internal/ports"
	"github.com/target/tenant-auth/internal/service"
)

// AuthConfig contains the dependencies for building the authenticator.
type AuthConfig struct {
	Auth           config.AuthConfig
	RedisClient    redis.UniversalClient // required for strategy=store, backend=redis
	RedisKeyPrefix string                // session key namespace; defaults to the cookie prefix
	DB             *sql.DB               // required for strategy=store, backend=postgres
	Metrics        statsd.Sink
	Logger         *slog.Logger
}

// BuildAuthenticator creates the authenticator for the configured mode and strategy.
// Unlike a missing optional feature, a misconfigured authenticator is a startup error.
func BuildAuthenticator(ctx context.Context, cfg AuthConfig) (service.Authenticator, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	provider, err := buildProvider(ctx, cfg.Auth)
	if err != nil {
		return nil, err
	}

	opts := service.AuthenticatorOptions{
		Provider:           provider,
		Origin:             cfg.Auth.Origin,
		CookiePrefix:       cfg.Auth.Cookie.Prefix,
		Cookie:             cfg.Auth.CookieSettings(),
		RefreshTokenMaxAge: cfg.Auth.RefreshTokenMaxAge,
		PostLogoutPath:     cfg.Auth.OIDC.PostLogoutRedirect,
		Logger:             logger,
		Metrics:            cfg.Metrics,
	}
	if cfg.Auth.Strategy == config.StrategyStore {
		store, storeErr := buildSessionStore(cfg, logger)
		if storeErr != nil {
			return nil, storeErr
		}
		opts.Store = store
	}

	a, err := service.NewAuthenticator(cfg.Auth.Strategy.Domain(), opts)
	if err != nil {
		return nil, fmt.Errorf("build authenticator: %w", err)
	}
	logger.Info("authenticator ready",
		"mode", cfg.Auth.Mode,
		"strategy", cfg.Auth.Strategy,
		"origin", cfg.Auth.Origin,
	)
	return a, nil
}

// BuildRoleMapper returns the claims-to-role mapper for the configured realm roles.
func BuildRoleMapper(cfg config.AuthConfig) ports.RoleMapper {
	return authroles.StaticRoleMapper{
		AdminRealmRole: cfg.AdminRealmRole,
		UserRealmRole:  cfg.UserRealmRole,
	}
}

//nolint:ireturn // the provider implementation is selected at runtime.
func buildProvider(ctx context.Context, cfg config.AuthConfig) (ports.OIDCProvider, error) {
	switch cfg.Mode {
	case config.AuthModeMock:
		dev := cfg.DevAuth
		prov, err := devauth.NewProvider(devauth.Config{
			Subject:     dev.Subject,
			Email:       dev.Email,
			Name:        dev.Name,
			TenantID:    dev.TenantID,
			TenantName:  dev.TenantName,
			TenantRoles: dev.TenantRoles,
			RealmRoles:  dev.RealmRoles,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		return prov, nil

	case config.AuthModeOIDC, "":
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			IssuerURL:    cfg.OIDC.IssuerURL,
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			Scope:        cfg.OIDC.Scope,
		})
		if err != nil {
			return nil, fmt.Errorf("create OIDC provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

//nolint:ireturn // the session store backend is selected at runtime.
func buildSessionStore(cfg AuthConfig, logger *slog.Logger) (ports.SessionStoreConnector, error) {
	onError := func(err error) {
		logger.Warn("session store error", "backend", cfg.Auth.StoreBackend, "error", err)
	}
	sealer := CreateSealer(cfg.Auth.SessionEncryptionKey, logger)

	switch cfg.Auth.StoreBackend {
	case config.StoreBackendPostgres:
		if cfg.DB == nil {
			return nil, errors.New("postgres session store requires a database connection")
		}
		return pgadapter.NewSessionStore(cfg.DB, pgadapter.Options{
			TempSessionTTL: cfg.Auth.TempSessionTTL,
			AuthSessionTTL: cfg.Auth.SessionTTL,
			Sealer:         sealer,
			OnError:        onError,
		}), nil

	case config.StoreBackendRedis, "":
		if cfg.RedisClient == nil {
			return nil, errors.New("redis session store requires a redis client")
		}
		return redisadapter.NewSessionStoreWithOptions(cfg.RedisClient, redisadapter.Options{
			Prefix:         redisSessionPrefix(cfg),
			TempSessionTTL: cfg.Auth.TempSessionTTL,
			AuthSessionTTL: cfg.Auth.SessionTTL,
			Sealer:         sealer,
			OnError:        onError,
		}), nil

	default:
		return nil, fmt.Errorf("unknown session store backend %q", cfg.Auth.StoreBackend)
	}
}

// CreateSealer builds the session-store sealer from key. An empty or unusable
// key stores values unsealed, with a warning.
//
//nolint:ireturn // the sealer implementation depends on configuration.
func CreateSealer(key string, logger *slog.Logger) cryptoutil.Sealer {
	if key == "" {
		logger.Warn("session encryption key is empty, storing session tokens unsealed")
		return cryptoutil.PlainSealer{}
	}
	sealer, err := cryptoutil.NewSealerFromKey(key)
	if err != nil {
		logger.Warn("failed to create session sealer, storing session tokens unsealed", "error", err)
		return cryptoutil.PlainSealer{}
	}
	return sealer
}

func redisSessionPrefix(cfg AuthConfig) string {
	base := cfg.RedisKeyPrefix
	if base == "" {
		base = cfg.Auth.Cookie.Prefix
	}
	return base + ":session:"
}
