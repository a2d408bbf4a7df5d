// Package backend declares the capability-based contract that every memory
// storage backend (built-in, external-indexer, or the MongoDB core)
// implements. Callers branch on capability presence via type assertions,
// never on a concrete backend type.
package backend

import "context"

// Backend is the capability set every memory backend exposes
// unconditionally.
type Backend interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
	ReadFile(ctx context.Context, req ReadFileRequest) (string, error)
	Status(ctx context.Context) (Status, error)
	ProbeEmbeddingAvailability(ctx context.Context) error
	ProbeVectorAvailability(ctx context.Context) bool
	Close(ctx context.Context) error
}

// Syncer is an optional capability: backends backed by a watched filesystem
// expose it, in-memory or read-only backends do not.
type Syncer interface {
	Sync(ctx context.Context, opts SyncOptions) (SyncResult, error)
}

// StructuredWriter is an optional capability for backends that persist
// typed key/value observations on an agent's behalf.
type StructuredWriter interface {
	WriteStructuredMemory(ctx context.Context, entry StructuredMemoryInput) error
}

// Stats is an optional capability for backends that can report coverage and
// breakdown statistics beyond the basic Status snapshot.
type Stats interface {
	Stats(ctx context.Context, validPaths []string) (StatsReport, error)
}

// SearchOptions configures a Search call. Zero values apply the documented
// defaults (MaxResults=10, MinScore=0.1).
type SearchOptions struct {
	MaxResults int
	MinScore   float64
	SessionKey string
}

// SearchResult is one normalized, merged, deduplicated hit.
type SearchResult struct {
	Path    string
	Snippet string
	Score   float64
	Source  string
}

// ReadFileRequest names the file and optional line window a caller wants.
type ReadFileRequest struct {
	RelPath string
	From    int
	Lines   int
}

// SyncOptions configures a Sync call.
type SyncOptions struct {
	Reason   string
	Force    bool
	Progress func(ProgressEvent)
}

// ProgressEvent is one per-file progress record emitted during a sync.
type ProgressEvent struct {
	Completed int
	Total     int
	Label     string
}

// SyncResult summarizes the outcome of one sync run.
type SyncResult struct {
	FilesProcessed int
	ChunksUpserted int
	StaleDeleted   int
}

// Status is the non-blocking snapshot returned by Status.
type Status struct {
	Backend   string
	Provider  string
	Model     string
	Files     int64
	Chunks    int64
	Dirty     bool
	Workspace string
	Sources   []string
	Extra     map[string]any
}

// StructuredMemoryInput is the caller-supplied payload for
// WriteStructuredMemory.
type StructuredMemoryInput struct {
	AgentID    string
	Type       string
	Key        string
	Value      string
	Context    string
	Confidence float64
	Tags       []string
	Source     string
}

// StatsReport is the result of an optional Stats call.
type StatsReport struct {
	SourceBreakdown  map[string]int64
	EmbeddingStatus  map[string]int64
	CachedEmbeddings int64
	StaleFiles       []string
	CollectionCounts map[string]int64
	IndexStats       []map[string]any
}
