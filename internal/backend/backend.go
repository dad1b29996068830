// Package backend selects and initializes the transaction store named by
// configuration.
package backend

import (
	"context"
	"fmt"

	"salestats/internal/config"
	applog "salestats/internal/log"
	"salestats/internal/store"
	"salestats/internal/store/memory"
	"salestats/internal/store/mongo"
	"salestats/internal/store/sqlite"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result contains the store instance and optional cleanup function.
type Result struct {
	Store   store.TransactionStore
	Cleanup CleanupFunc
}

// Open creates the store named by cfg.DataBackend.
func Open(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Result, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent("backend")

	switch cfg.DataBackend {
	case "memory":
		st, err := memory.NewFromFile(cfg.MemorySeedFile)
		if err != nil {
			return nil, fmt.Errorf("initialize memory backend: %w", err)
		}
		logger.Info("Initialized memory backend", "seed_file", cfg.MemorySeedFile)
		return &Result{Store: st, Cleanup: st.Close}, nil

	case "sqlite":
		st, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: st, Cleanup: st.Close}, nil

	case "mongo":
		st, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("initialize mongo backend: %w", err)
		}
		logger.Info("Initialized mongo backend", "database", cfg.MongoDatabase)
		return &Result{Store: st, Cleanup: st.Close}, nil

	default:
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}
}
