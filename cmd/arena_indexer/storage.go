package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/dfarena/indexer/internal/config"
	"github.com/dfarena/indexer/internal/database"
	"github.com/dfarena/indexer/internal/storage"
	gormstorage "github.com/dfarena/indexer/internal/storage/gorm"
	"github.com/dfarena/indexer/internal/storage/memory"
	pgstorage "github.com/dfarena/indexer/internal/storage/postgres"
	redisstorage "github.com/dfarena/indexer/internal/storage/redis"
	sqlitestorage "github.com/dfarena/indexer/internal/storage/sqlite"
)

func createStorageBackend(storageCfg config.StorageConfig, log zerolog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		log.Info().Msg("Postgres storage backend initialized")
		return pgstorage.New(pgstorage.Dependencies{
			Config: config.GetDBConfig(),
			Logger: log,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, "", log)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		log.Info().Str("dumpPath", storageCfg.SQLite.DumpPath).Msg("SQLite storage backend initialized")
		return backend, nil

	case "redis":
		log.Info().Str("addr", storageCfg.Redis.Addr).Msg("Redis storage backend initialized")
		return redisstorage.NewFromConfig(storageCfg.Redis, log), nil

	case "memory", "":
		log.Info().Msg("Memory storage backend initialized")
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// openStorageBackend opens persisted records for reading. SQLite reads its
// last dump directly; the memory backend keeps nothing between runs.
func openStorageBackend(storageCfg config.StorageConfig, log zerolog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "sqlite":
		if _, err := os.Stat(storageCfg.SQLite.DumpPath); err != nil {
			return nil, fmt.Errorf("no SQLite dump at %q: %w", storageCfg.SQLite.DumpPath, err)
		}
		db, err := database.GetSqliteDB(storageCfg.SQLite.DumpPath, log)
		if err != nil {
			return nil, err
		}
		return gormstorage.New(gormstorage.Dependencies{DB: db, Logger: log}), nil

	case "memory", "":
		return nil, errors.New("memory storage has no persisted records")

	default:
		return createStorageBackend(storageCfg, log)
	}
}
