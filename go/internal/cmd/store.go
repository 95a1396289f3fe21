package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/racedash/go/internal/config"
	"github.com/mcdev12/racedash/go/internal/store"
)

// openStore connects the backend selected by the configuration.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory, "":
		log.Warn().Msg("using in-memory store, state is lost on restart")
		return store.NewMemory(), nil

	case config.BackendBolt:
		st, err := store.NewBolt(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.BoltPath).Msg("opened bolt store")
		return st, nil

	case config.BackendPostgres:
		pgConfig := store.DefaultPostgresConfig()
		pgConfig.DatabaseURL = cfg.Database.DSN()
		if cfg.FallbackInterval > 0 {
			pgConfig.FallbackInterval = cfg.FallbackInterval
		}
		st, err := store.OpenPostgres(ctx, pgConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("connected to postgres store")
		return st, nil

	case config.BackendNATS:
		natsConfig := store.DefaultNATSConfig()
		natsConfig.URL = cfg.NATSURL
		if cfg.NATSBucket != "" {
			natsConfig.Bucket = cfg.NATSBucket
		}
		st, err := store.OpenNATS(ctx, natsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to open nats store: %w", err)
		}
		log.Info().Str("url", cfg.NATSURL).Str("bucket", natsConfig.Bucket).Msg("connected to nats store")
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
