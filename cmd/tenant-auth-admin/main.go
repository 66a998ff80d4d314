package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/target/tenant-auth/config"
	pgadapter "github.com/target/tenant-auth/internal/adapters/postgres"
	"github.com/target/tenant-auth/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

const defaultCommandTimeout = 5 * time.Minute

func main() {
	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			slog.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			slog.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			slog.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	logger := bootstrap.InitLogger(cfg.IsDev)

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run session store database migrations",
			run:         runMigrations,
		},
		"purge-sessions": {
			name:        "purge-sessions",
			description: "Delete expired temp and auth sessions from Postgres",
			run:         runPurgeSessions,
		},
		"check-config": {
			name:        "check-config",
			description: "Validate configuration and print the effective auth settings",
			run:         runCheckConfig,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: tenant-auth-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-18s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

type timeoutOptions struct {
	Timeout time.Duration
}

func parseTimeoutFlags(name string, args []string) (timeoutOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := timeoutOptions{Timeout: defaultCommandTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for the command")

	if err := fs.Parse(args); err != nil {
		return timeoutOptions{}, err
	}
	if opts.Timeout <= 0 {
		return timeoutOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseTimeoutFlags("migrate", args)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.InfoContext(ctx, "running database migrations")
		if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		cmdCtx.Logger.InfoContext(ctx, "migrations completed successfully")
		return nil
	})
}

func runPurgeSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseTimeoutFlags("purge-sessions", args)
	if err != nil {
		return err
	}
	if cmdCtx.Config.Auth.StoreBackend != config.StoreBackendPostgres {
		return fmt.Errorf("purge-sessions requires the postgres store backend, got %q", cmdCtx.Config.Auth.StoreBackend)
	}
	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		store := pgadapter.NewSessionStore(db, pgadapter.Options{
			TempSessionTTL: cmdCtx.Config.Auth.TempSessionTTL,
			AuthSessionTTL: cmdCtx.Config.Auth.SessionTTL,
		})
		n, err := store.PurgeExpired(ctx)
		if err != nil {
			return fmt.Errorf("purge expired sessions: %w", err)
		}
		return writef(cmdCtx.Out, "purged %d expired sessions\n", n)
	})
}

func runCheckConfig(cmdCtx *commandContext, _ []string) error {
	cfg := &cmdCtx.Config
	if err := bootstrap.ValidateConfig(cfg); err != nil {
		return err
	}
	return writeConfigSummary(cmdCtx.Out, cfg)
}

func writeConfigSummary(w io.Writer, cfg *config.AppConfig) error {
	rows := [][2]string{
		{"mode", string(cfg.Auth.Mode)},
		{"strategy", string(cfg.Auth.Strategy)},
		{"origin", cfg.Auth.Origin},
		{"issuer", cfg.Auth.OIDC.IssuerURL},
		{"client_id", cfg.Auth.OIDC.ClientID},
		{"callback_path", cfg.Auth.OIDC.CallbackPath},
		{"cookie_prefix", cfg.Auth.Cookie.Prefix},
		{"cookie_domain", cfg.Auth.Cookie.Domain},
		{"cookie_same_site", cfg.Auth.Cookie.SameSite},
	}
	if cfg.Auth.Strategy == config.StrategyStore {
		rows = append(rows, [2]string{"store_backend", string(cfg.Auth.StoreBackend)})
	}
	for _, row := range rows {
		if err := writef(w, "%-18s %s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return nil
}

func withDatabase(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *sql.DB) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
