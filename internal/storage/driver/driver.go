// Package driver opens the storage backend named by the configuration.
package driver

import (
	"context"
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/invoicer/internal/config"
	"github.com/MrJamesThe3rd/invoicer/internal/database"
	"github.com/MrJamesThe3rd/invoicer/internal/storage"
	"github.com/MrJamesThe3rd/invoicer/internal/storage/localdb"
	"github.com/MrJamesThe3rd/invoicer/internal/storage/memory"
	"github.com/MrJamesThe3rd/invoicer/internal/storage/postgres"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the backend and whatever must be closed on shutdown.
func Open(ctx context.Context, cfg *config.Config) (storage.Backend, io.Closer, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.New(), nopCloser{}, nil
	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.ConnectionString(), database.Pool{})
		if err != nil {
			return nil, nil, err
		}

		store := postgres.New(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}

		return store, db, nil
	case config.DriverLevelDB:
		store, err := localdb.Open(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}

		return store, store, nil
	}

	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
