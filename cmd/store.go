package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/encorenotes/setlist-cli/internal/store"
)

// openStore builds the source record store for the configured driver and
// the requested table, and runs migrations.
func openStore(ctx context.Context, table store.Table) (store.RecordStore, error) {
	var (
		st  store.RecordStore
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL, table)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, table)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
