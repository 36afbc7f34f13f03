package app

import (
	"github.com/kermarrec/hgtpipe/internal/infra/config"
	"github.com/kermarrec/hgtpipe/internal/infra/logger"
	"github.com/kermarrec/hgtpipe/internal/store"
)

// Context holds the core environment and shared resources of hgtpipe.
// It is built once per process and handed to the orchestrator and the
// API layer.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	// Stores hands out scoped destination-store handles. Nil for
	// commands that never import (download, extract, lookup).
	Stores store.Factory
}

// NewContext initializes the base environment.
func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config: cfg,
		Logger: log,
	}
}
