package cli

import (
	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
)

// stateStore is the persisted sync state read by the inspection commands.
type stateStore interface {
	ExclusionStore() driven.ExclusionStore
	SyncRunStore() driven.SyncRunStore
	Close() error
}

// openState opens the state database of a config dir.
var openState = func(dir string) (stateStore, error) {
	store, err := sqlite.NewStore(dir)
	if err != nil {
		return nil, err
	}
	return store, nil
}
