package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/config"
	"github.com/jonathan/jobtrail/internal/db"
	"github.com/jonathan/jobtrail/internal/followup"
	"github.com/jonathan/jobtrail/internal/logger"
	"github.com/jonathan/jobtrail/internal/outbox"
	"github.com/jonathan/jobtrail/internal/server"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/rs/zerolog"
)

// runtime holds everything a command needs to reach the core.
type runtime struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   *store.Store
	svc     *server.Services
	closers []func()
}

// loadConfig reads configuration and initialises logging. Logs go to stderr so
// command output on stdout stays machine-readable.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Out: os.Stderr})
	return cfg, nil
}

// openRuntime connects storage and the outbox and builds the services.
// Without DATABASE_URL the store is in-memory and nothing outlives the process.
func openRuntime(ctx context.Context, withOutbox bool) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: logger.Get()}

	var base *store.Store
	if cfg.DatabaseURL == "" {
		rt.log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		base = store.NewMemory(time.Now)
	} else {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, database.Close)
		base = database.Store()
	}
	rt.store = store.WithTimeout(base, cfg.StoreTimeout.Std())

	var sender followup.Sender = outbox.Noop{Log: rt.log}
	if withOutbox && cfg.RabbitMQURL != "" {
		publisher, err := outbox.Dial(cfg.RabbitMQURL, cfg.OutboxQueue)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() {
			if err := publisher.Close(); err != nil {
				rt.log.Warn().Err(err).Msg("failed to close outbox")
			}
		})
		sender = publisher
		rt.log.Info().Str("queue", publisher.Queue()).Msg("outbox connected")
	}

	rt.svc = server.NewServices(rt.store, server.Wiring{
		Logger:        rt.log,
		Sender:        sender,
		Concurrency:   cfg.MovementConcurrency,
		LookupTimeout: cfg.LookupTimeout.Std(),
		RecentLimit:   cfg.RecentSentLimit,
	})
	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// parseOwner validates the --user flag.
func parseOwner(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("--user is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --user %q: %w", raw, err)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("--user must not be the nil uuid")
	}
	return id, nil
}
