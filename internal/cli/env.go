package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/contactsync/internal/config"
	"github.com/roach88/contactsync/internal/lock"
	"github.com/roach88/contactsync/internal/reconcile"
	"github.com/roach88/contactsync/internal/store"
	"github.com/roach88/contactsync/internal/store/postgres"
)

// Repository is what commands need from a projection backend.
// Implemented by store.Store and postgres.Store.
type Repository interface {
	reconcile.Repository
	Count(ctx context.Context) (int, error)
	Close() error
}

// Env is the per-command wiring built from config and flags.
type Env struct {
	Config *config.Config
	Logger *slog.Logger
	Repo   Repository
	Engine *reconcile.Engine

	redis *redis.Client
}

// envOptions tweak openEnv for individual commands.
type envOptions struct {
	fresh bool // start from an empty SQLite file
}

// openEnv loads configuration, applies flag overrides and opens the
// projection. The caller must Close the returned Env.
func openEnv(ctx context.Context, opts *RootOptions, stderr io.Writer, eo envOptions) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Driver != "" {
		cfg.Store.Driver = opts.Driver
	}
	if opts.DB != "" {
		cfg.Store.DSN = opts.DB
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	logger := newLogger(cfg, opts.Verbose, stderr)
	env := &Env{Config: cfg, Logger: logger}

	env.Repo, err = openRepository(cfg, eo.fresh || cfg.Store.Reset, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	logger.Debug("database ready", "driver", cfg.Store.Driver)

	locker, err := env.openLocker(ctx)
	if err != nil {
		env.Close()
		return nil, WrapExitError(ExitCommandError, "failed to set up locking", err)
	}

	env.Engine = reconcile.New(env.Repo,
		reconcile.WithLogger(logger),
		reconcile.WithLocker(locker),
	)
	return env, nil
}

// Close releases the database and any Redis connection.
func (e *Env) Close() error {
	var errs []error
	if e.Repo != nil {
		if err := e.Repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// openRepository opens the configured backend. A fresh start is only
// possible for SQLite; Postgres keeps its rows and a warning is logged.
func openRepository(cfg *config.Config, fresh bool, logger *slog.Logger) (Repository, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if fresh {
			logger.Warn("fresh database requested but postgres keeps existing rows", "driver", cfg.Store.Driver)
		}
		return postgres.Open(cfg.Store.DSN)
	default:
		if fresh {
			return store.OpenFresh(cfg.Store.DSN)
		}
		return store.Open(cfg.Store.DSN)
	}
}

func (e *Env) openLocker(ctx context.Context) (lock.Locker, error) {
	switch e.Config.Lock.Backend {
	case config.LockNone:
		return lock.Noop{}, nil
	case config.LockRedis:
		l, client, err := lock.Dial(ctx, e.Config.Lock.RedisAddr, e.Config.Lock.TTL)
		if err != nil {
			return nil, err
		}
		e.redis = client
		e.Logger.Debug("redis lock ready", "addr", e.Config.Lock.RedisAddr)
		return l, nil
	default:
		return lock.NewLocal(), nil
	}
}

// newLogger builds the command logger. --verbose wins over logging.level.
func newLogger(cfg *config.Config, verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Logging.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
