package catalog

import (
	"context"
	"fmt"

	"github.com/freeplay/yourleague-service/internal/config"
	"github.com/freeplay/yourleague-service/internal/storage"
	"github.com/freeplay/yourleague-service/internal/storage/badgerstore"
	"github.com/freeplay/yourleague-service/internal/storage/jsonfile"
	"github.com/freeplay/yourleague-service/internal/storage/memory"
	"github.com/freeplay/yourleague-service/internal/storage/sqlstore"
)

// OpenStorage returns the record store selected by cfg.Catalog.Driver.
func OpenStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Catalog.Driver {
	case "", "json":
		return jsonfile.New(cfg.Catalog.Path)
	case "sqlite":
		return sqlstore.Open(ctx, sqlstore.SQLite, cfg.Catalog.Path)
	case "postgres":
		return sqlstore.Open(ctx, sqlstore.Postgres, cfg.PGSQL.DSN())
	case "badger":
		return badgerstore.Open(cfg.Catalog.Path)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Catalog.Driver)
	}
}
