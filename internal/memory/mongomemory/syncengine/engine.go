// Package syncengine implements incremental ingest from a watched workspace
// into the store: hash-based change detection, token-window chunking,
// atomic per-file replacement, and stale-entry cleanup (C3 in the component
// design).
package syncengine

import (
	"context"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/chunk"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/embedding"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/schema"
	"github.com/haasonsaas/nexus-memcore/internal/observability"
)

// SessionFile is one session transcript file supplied by the optional
// session source collaborator.
type SessionFile struct {
	Path string
	Text string
}

// SessionSource lists the session transcript files for an agent. It is an
// external collaborator; the engine treats a nil source as "no session
// sync available" even when an agent id is configured.
type SessionSource interface {
	ListSessionFiles(ctx context.Context, agentID string) ([]SessionFile, error)
}

// Deps are the engine's collaborators, borrowed for its lifetime.
type Deps struct {
	DB       *mongo.Database
	Schema   *schema.Manager
	Provider embedding.Provider // nil when embeddings are not managed here
	Sessions SessionSource      // nil when session sync is unavailable
	Logger   *observability.Logger

	Workspace        string
	ExtraPaths       []string
	AgentID          string
	Managed          bool // true: generate and store vectors here (C2)
	MaxSessionChunks int
	MemoryChunking   chunk.Config
	KBChunking       chunk.Config
}

// Engine runs sync phases A-G against one workspace/agent pair.
type Engine struct {
	deps Deps

	// useTransactions starts true and is permanently flipped off for the
	// remainder of the process the first time a standalone-topology signal
	// is observed, per the atomic per-file write contract.
	useTransactions atomic.Bool
}

// New constructs an Engine. Deps.MaxSessionChunks, MemoryChunking, and
// KBChunking should already carry their resolved defaults.
func New(deps Deps) *Engine {
	e := &Engine{deps: deps}
	e.useTransactions.Store(true)
	return e
}

// RunOptions configures one sync invocation.
type RunOptions struct {
	Reason   string
	Force    bool
	Progress func(ProgressEvent)
}

// ProgressEvent is one per-file progress record.
type ProgressEvent struct {
	Completed int
	Total     int
	Label     string
}

// Result summarizes one sync run's outcome.
type Result struct {
	FilesProcessed int
	ChunksUpserted int
	StaleDeleted   int
}

func (e *Engine) emit(opts RunOptions, completed, total int, label string) {
	if opts.Progress != nil {
		opts.Progress(ProgressEvent{Completed: completed, Total: total, Label: label})
	}
}

func (e *Engine) logf(level, msg string, args ...any) {
	if e.deps.Logger == nil {
		return
	}
	ctx := context.Background()
	switch level {
	case "warn":
		e.deps.Logger.Warn(ctx, msg, args...)
	case "debug":
		e.deps.Logger.Debug(ctx, msg, args...)
	default:
		e.deps.Logger.Info(ctx, msg, args...)
	}
}

// Run executes phases A through G in order and returns the aggregate result.
// Per-file errors are logged and do not abort the run (§7: per-item
// failure); only the final stale-cleanup phase can fail the run outright.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (Result, error) {
	var result Result

	e.deferredReattempt(ctx)

	memoryFiles, err := e.enumerateMemoryFiles()
	if err != nil {
		return result, err
	}

	var sessionFiles []SessionFile
	if e.deps.AgentID != "" && e.deps.Sessions != nil {
		sessionFiles, err = e.deps.Sessions.ListSessionFiles(ctx, e.deps.AgentID)
		if err != nil {
			e.logf("warn", "syncengine: list session files failed", "agentId", e.deps.AgentID, "error", err)
			sessionFiles = nil
		}
	}

	total := len(memoryFiles) + len(sessionFiles)
	validPaths := make(map[string]bool, total)
	completed := 0

	for _, f := range memoryFiles {
		validPaths[f.relPath] = true
		text, err := readFile(f.absPath)
		if err != nil {
			e.logf("warn", "syncengine: read file failed", "path", f.relPath, "error", err)
			completed++
			e.emit(opts, completed, total, f.relPath)
			continue
		}
		upserted, processed, err := e.syncOneFile(ctx, f.relPath, text, docSourceMemory, opts.Force, e.deps.MemoryChunking, 0)
		if err != nil {
			e.logf("warn", "syncengine: file sync failed", "path", f.relPath, "error", err)
		} else if processed {
			result.FilesProcessed++
			result.ChunksUpserted += upserted
		}
		completed++
		e.emit(opts, completed, total, f.relPath)
	}

	if len(sessionFiles) > 0 {
		sessionCap := e.deps.MaxSessionChunks
		if sessionCap <= 0 {
			sessionCap = 50
		}
		for _, sf := range sessionFiles {
			validPaths[sf.Path] = true
			upserted, processed, err := e.syncOneFile(ctx, sf.Path, sf.Text, docSourceSessions, opts.Force, e.deps.MemoryChunking, sessionCap)
			if err != nil {
				e.logf("warn", "syncengine: session sync failed", "path", sf.Path, "error", err)
			} else if processed {
				result.FilesProcessed++
				result.ChunksUpserted += upserted
			}
			completed++
			e.emit(opts, completed, total, sf.Path)
		}
	}

	staleDeleted, err := e.cleanupStale(ctx, validPaths)
	if err != nil {
		return result, err
	}
	result.StaleDeleted = staleDeleted

	e.emit(opts, total, total, "")
	return result, nil
}
