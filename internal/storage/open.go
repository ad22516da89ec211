package storage

import (
	"context"
	"fmt"
	"log/slog"

	"crackledate/internal/config"
	"crackledate/internal/database"
	"crackledate/internal/repository"
)

// Open builds the Store selected by cfg.StoreBackend. The SQL backend runs
// pending migrations before returning.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.StoreBackend {
	case "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case "badger":
		return OpenBadger(BadgerConfig{Path: cfg.BadgerPath, SyncWrites: true, Logger: logger})
	case "sql", "":
		db, err := database.InitializeWithConfig(cfg)
		if err != nil {
			return nil, err
		}
		applied, err := db.RunMigrations(ctx)
		if err != nil {
			db.Close()
			return nil, err
		}
		for _, name := range applied {
			logger.Info("migration completed", "file", name)
		}
		return repository.NewKVRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}
