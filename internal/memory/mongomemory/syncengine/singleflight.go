package syncengine

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Coordinator wraps an Engine with a single-flight guarantee: at most one
// sync is in progress at a time; concurrent callers join the same result.
// A cleanup always clears the in-flight handle, on both success and
// failure.
type Coordinator struct {
	engine *Engine
	group  singleflight.Group
}

// NewCoordinator wraps engine with single-flight sync coordination.
func NewCoordinator(engine *Engine) *Coordinator {
	return &Coordinator{engine: engine}
}

// Sync runs the engine, collapsing concurrent callers into one in-flight
// run. shared reports whether the caller joined an already-running sync
// rather than initiating a new one.
func (c *Coordinator) Sync(ctx context.Context, opts RunOptions) (result Result, shared bool, err error) {
	v, err, shared := c.group.Do("sync", func() (interface{}, error) {
		return c.engine.Run(ctx, opts)
	})
	if res, ok := v.(Result); ok {
		result = res
	}
	return result, shared, err
}
