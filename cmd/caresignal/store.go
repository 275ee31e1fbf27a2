package main

import (
	"fmt"

	"github.com/caresignal/caresignal/internal/storage"
)

// openStore connects the configured storage backend.
func openStore() (storage.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, fmt.Errorf("storage type is postgres but no DSN configured")
		}
		return storage.NewPostgresStore(cfg.Storage.PostgresDSN, logger)
	case "sqlite", "":
		return storage.NewSQLiteStore(cfg.Storage.LocalPath, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}
