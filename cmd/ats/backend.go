package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/hiring-pipeline/internal/config"
	"github.com/jonathan/hiring-pipeline/internal/db"
	"github.com/jonathan/hiring-pipeline/internal/hiring"
	"github.com/jonathan/hiring-pipeline/internal/server"
)

// backend is everything the server persists. db.DB and db.MemoryStore both
// provide it.
type backend interface {
	hiring.Store
	server.UserStore
}

// openedBackend is a connected backend plus its lifecycle hooks.
type openedBackend struct {
	backend
	ping  func(ctx context.Context) error
	close func()
}

// openBackend connects to the configured store. Postgres is migrated before
// use so a fresh database works out of the box.
func openBackend(ctx context.Context, cfg *config.Config) (*openedBackend, error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Printf("[store] using in-memory store; data is lost on exit")
		return &openedBackend{backend: db.NewMemoryStore(), close: func() {}}, nil
	case config.StorePostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		return &openedBackend{backend: database, ping: database.Ping, close: database.Close}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
