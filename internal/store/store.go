package store

import (
	"context"
	"fmt"

	"github.com/kermarrec/hgtpipe/internal/domain"
	"github.com/kermarrec/hgtpipe/internal/hgt"
	"github.com/kermarrec/hgtpipe/internal/infra/config"
)

// Manager is a scoped handle to the destination store. Import workers
// acquire one per tile file and release it when the file is done,
// whatever the outcome; handles are never shared across workers.
type Manager interface {
	// InsertValue writes one decoded cell. Void cells are stored with a
	// NULL elevation.
	InsertValue(ctx context.Context, v hgt.Value, src domain.Source) error

	// InsertBlock writes one rectangular block of raw samples.
	InsertBlock(ctx context.Context, b hgt.Block, src domain.Source) error

	Close() error
}

// Factory hands out Manager handles. One factory lives for the whole
// process; it owns the underlying pool or database.
type Factory interface {
	Manager(ctx context.Context) (Manager, error)
	Close() error
}

// NewFactory opens the backend named by the configuration and runs its
// migrations.
func NewFactory(ctx context.Context, cfg config.StoreConfig) (Factory, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLiteFactory(cfg.SQLitePath)
	case "postgres":
		return NewPostgresFactory(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
