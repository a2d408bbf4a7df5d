package main

import (
	"context"
	"os"

	"github.com/haasonsaas/nexus-memcore/internal/config"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory"
	"github.com/haasonsaas/nexus-memcore/internal/observability"
)

// openManager loads the config, builds a logger from its logging section,
// and connects a Manager. Callers are responsible for Close-ing it.
func openManager(ctx context.Context) (*mongomemory.Manager, *config.Config, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	mgr, err := mongomemory.Create(ctx, cfg.Memory, cfg.Embedding, cfg.Workspace.AgentID, cfg.Workspace.Path, cfg.Workspace.ExtraPaths, logger)
	if err != nil {
		return nil, nil, err
	}
	return mgr, cfg, nil
}
