// Package app wires configuration, storage, Redis and the ledger into one
// Runtime shared by the HTTP server and the CLI commands.
package app

import (
	"context"
	"fmt"
	"time"

	"carbon-ledger/internal/config"
	"carbon-ledger/internal/infrastructure/database"
	"carbon-ledger/internal/infrastructure/notify"
	"carbon-ledger/internal/infrastructure/persistence"
	"carbon-ledger/internal/ledger"
	"carbon-ledger/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Runtime holds the long-lived dependencies.
type Runtime struct {
	Config    *config.Config
	DB        *gorm.DB
	Rdb       *redis.Client
	Journal   *persistence.Journal
	Ledger    *ledger.Ledger
	Publisher *notify.RedisPublisher
}

// OpenOptions tunes Open.
type OpenOptions struct {
	// Migrate runs AutoMigrate before loading. The in-process database is always migrated.
	Migrate bool
	// Quiet leaves out the log and Redis notifiers (used by offline commands).
	Quiet bool
}

// Open connects to the database and Redis, restores the ledger from the
// journal and attaches the configured notifiers.
func Open(ctx context.Context, cfg *config.Config, opts OpenOptions) (*Runtime, error) {
	rt := &Runtime{Config: cfg}

	var err error
	if cfg.DatabaseURL != "" {
		rt.DB, err = database.Open(cfg.DatabaseURL)
	} else {
		log.Warn().Msg("DATABASE_URL not set; ledger state is kept in memory and lost on exit")
		rt.DB, err = database.OpenMemory()
		opts.Migrate = true
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if opts.Migrate {
		if err := database.AutoMigrate(rt.DB); err != nil {
			rt.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	rt.Journal = &persistence.Journal{DB: rt.DB}

	if cfg.RedisURL != "" && !opts.Quiet {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rt.Rdb = redis.NewClient(redisOpts)
		rt.Publisher = notify.NewRedisPublisher(rt.Rdb, notify.RedisConfig{
			Channel:      cfg.EventsChannel,
			Stream:       cfg.EventsStream,
			StreamMaxLen: cfg.EventsStreamMaxLen,
			Timeout:      cfg.EventsTimeout,
			Buffer:       cfg.EventsBuffer,
		})
	}

	snap, err := rt.Journal.Load(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Ledger, err = ledger.Restore(snap, ledger.Options{
		Journal:  rt.Journal,
		Notifier: rt.notifiers(opts),
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("restore ledger: %w", err)
	}
	if cfg.MetricsEnabled {
		observability.Seed(rt.Ledger.Stats(), len(snap.Organizations))
	}

	log.Info().
		Int("organizations", len(snap.Organizations)).
		Int("credits", len(snap.Credits)).
		Uint64("seq", snap.Seq).
		Msg("ledger restored")
	return rt, nil
}

func (rt *Runtime) notifiers(opts OpenOptions) ledger.Notifier {
	var ns ledger.Notifiers
	if !opts.Quiet {
		ns = append(ns, notify.LogNotifier{})
	}
	if rt.Config.MetricsEnabled {
		ns = append(ns, observability.LedgerMetrics{})
	}
	if rt.Publisher != nil {
		ns = append(ns, rt.Publisher)
	}
	return ns
}

// Ping checks the database connection.
func (rt *Runtime) Ping() error {
	sqlDB, err := rt.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close flushes queued events, then releases the database and Redis connections.
func (rt *Runtime) Close() error {
	var firstErr error
	if rt.Publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rt.Publisher.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("event queue not drained")
		}
		cancel()
	}
	if rt.Rdb != nil {
		if err := rt.Rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
