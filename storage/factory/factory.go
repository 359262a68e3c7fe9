// Package factory selects a storage backend from configuration.
package factory

import (
	"fmt"

	"github.com/pthm-cable/afterimage/config"
	"github.com/pthm-cable/afterimage/storage"
	"github.com/pthm-cable/afterimage/storage/memory"
	sqlitestorage "github.com/pthm-cable/afterimage/storage/sqlite"
)

// NewBackend creates and initializes the backend named by cfg.Driver.
func NewBackend(cfg config.StorageConfig) (storage.Backend, error) {
	var b storage.Backend
	switch cfg.Driver {
	case "", "memory":
		b = memory.New()
	case "sqlite":
		b = sqlitestorage.New(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err := b.Init(); err != nil {
		return nil, fmt.Errorf("init %s storage: %w", cfg.Driver, err)
	}
	return b, nil
}
