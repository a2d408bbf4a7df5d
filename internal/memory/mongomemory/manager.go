package mongomemory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haasonsaas/nexus-memcore/internal/memory/backend"
	"github.com/haasonsaas/nexus-memcore/internal/memory/embeddings"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/chunk"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/docs"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/embedding"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/merge"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/schema"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/search"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/syncengine"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/watch"
	"github.com/haasonsaas/nexus-memcore/internal/observability"
	"github.com/haasonsaas/nexus-memcore/internal/retry"
)

const defaultMinScore = 0.1
const defaultMaxResults = 10

// state is the manager's lifecycle: constructed -> open -> closed.
type state int

const (
	stateConstructed state = iota
	stateOpen
	stateClosed
)

// Manager is the memory core's lifecycle facade (C7): it owns the client,
// the dirty flag and cached counts, the single-flight sync coordinator, and
// the watchers, and implements the backend.Backend capability contracts.
type Manager struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    Config
	schema *schema.Manager
	caps   schema.Capabilities

	provider embedding.Provider // nil in automated mode
	engine   *syncengine.Engine
	coord    *syncengine.Coordinator

	fileWatcher *watch.FileWatcher
	csWatcher   *watch.ChangeStreamWatcher

	workspace  string
	extraPaths []string
	agentID    string
	logger     *observability.Logger

	mu         sync.Mutex
	st         state
	dirty      bool
	fileCount  int64
	chunkCount int64
}

var (
	_ backend.Backend          = (*Manager)(nil)
	_ backend.Syncer           = (*Manager)(nil)
	_ backend.StructuredWriter = (*Manager)(nil)
	_ backend.Stats            = (*Manager)(nil)
)

// Create connects to MongoDB, runs C1 setup, attaches the C2 provider when
// in managed mode, and starts the watchers. On a connect or ping failure it
// closes the client and returns a nil manager alongside the error.
// embeddingCfg is only consulted when cfg.EmbeddingMode is "managed".
func Create(ctx context.Context, cfg Config, embeddingCfg embeddings.Config, agentID, workspace string, extraPaths []string, logger *observability.Logger) (*Manager, error) {
	cfg.ApplyDefaults(agentID)
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, fmt.Errorf("%w: mongodb uri is required", ErrConfiguration)
	}

	connectCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeoutMs)*time.Millisecond)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize)

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongomemory: connect: %w", err)
	}

	// The initial ping is the one place a transient DNS/network blip during
	// startup (an Atlas SRV lookup racing a cold network namespace, say)
	// shouldn't be fatal on the first try.
	pingResult := retry.Do(connectCtx, retry.DefaultConfig(), func() error {
		return client.Ping(connectCtx, nil)
	})
	if pingResult.Err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongomemory: ping: %w", pingResult.Err)
	}

	m := &Manager{
		client:     client,
		db:         client.Database(cfg.Database),
		cfg:        cfg,
		workspace:  workspace,
		extraPaths: extraPaths,
		agentID:    agentID,
		logger:     logger,
	}
	m.schema = schema.New(m.db, cfg.CollectionPrefix)

	if err := runSchemaSetup(ctx, m.schema, cfg, m.logf); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongomemory: schema setup: %w", err)
	}
	m.caps = m.schema.DetectCapabilities(ctx)

	managed := cfg.EmbeddingMode == EmbeddingModeManaged
	if managed {
		provider, err := NewProvider(embeddingCfg)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongomemory: embedding provider: %w", err)
		}
		m.provider = provider
	}

	m.engine = syncengine.New(syncengine.Deps{
		DB:               m.db,
		Schema:           m.schema,
		Provider:         m.provider,
		Logger:           logger,
		Workspace:        workspace,
		ExtraPaths:       extraPaths,
		AgentID:          agentID,
		Managed:          managed,
		MaxSessionChunks: cfg.MaxSessionChunks,
		MemoryChunking:   chunk.MemoryDefaults(),
		KBChunking:       chunk.KBDefaults(),
	})
	m.coord = syncengine.NewCoordinator(m.engine)

	m.fileWatcher = &watch.FileWatcher{
		Workspace:  workspace,
		ExtraPaths: extraPaths,
		Debounce:   time.Duration(cfg.WatchDebounceMs) * time.Millisecond,
		OnDirty:    m.markDirty,
		Logger:     logger,
	}
	if err := m.fileWatcher.Start(ctx); err != nil {
		m.logf("warn", "mongomemory: filesystem watcher failed to start", "error", err)
	}

	if cfg.EnableChangeStreams {
		m.csWatcher = &watch.ChangeStreamWatcher{
			Collection: m.schema.Collection(schema.CollChunks),
			Debounce:   time.Duration(cfg.ChangeStreamDebounceMs) * time.Millisecond,
			OnDirty:    m.markDirty,
			Logger:     logger,
		}
		if err := m.csWatcher.Start(ctx); err != nil {
			m.logf("warn", "mongomemory: change stream watcher failed to start", "error", err)
		}
	}

	m.st = stateOpen
	return m, nil
}

func (m *Manager) markDirty() {
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
}

func (m *Manager) logf(level, msg string, args ...any) {
	if m.logger == nil {
		return
	}
	ctx := context.Background()
	switch level {
	case "warn":
		m.logger.Warn(ctx, msg, args...)
	case "debug":
		m.logger.Debug(ctx, msg, args...)
	default:
		m.logger.Info(ctx, msg, args...)
	}
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st == stateClosed
}

// Close marks the manager closed, stops both watchers, awaits any in-flight
// sync (ignoring its error), and closes the client. Idempotent.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.st == stateClosed {
		m.mu.Unlock()
		return nil
	}
	m.st = stateClosed
	m.mu.Unlock()

	if m.fileWatcher != nil {
		_ = m.fileWatcher.Close()
	}
	if m.csWatcher != nil {
		_ = m.csWatcher.Close()
	}
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}

// Search trims the query, fires a fire-and-forget sync if dirty, fans out
// C5 over chunks/kb_chunks/structured_mem in parallel, and folds results
// through C6 before truncating to MaxResults.
func (m *Manager) Search(ctx context.Context, query string, opts backend.SearchOptions) ([]backend.SearchResult, error) {
	if m.isClosed() {
		return nil, nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.MinScore <= 0 {
		opts.MinScore = defaultMinScore
	}

	m.mu.Lock()
	dirty := m.dirty
	m.mu.Unlock()
	if dirty {
		go func() {
			if _, err := m.Sync(context.Background(), backend.SyncOptions{Reason: "dirty-on-search"}); err != nil {
				m.logf("warn", "mongomemory: background sync on dirty search failed", "error", err)
			}
		}()
	}

	dispatcher := search.New(m.db, m.caps)

	var queryVector []float32
	if m.cfg.EmbeddingMode == EmbeddingModeManaged && m.provider != nil {
		v, err := m.provider.EmbedQuery(ctx, query)
		if err != nil {
			m.logf("warn", "mongomemory: query embedding failed, falling back to text-only search", "error", err)
		} else {
			queryVector = v
		}
	}
	automated := m.cfg.EmbeddingMode == EmbeddingModeAutomated

	// Legacy chunks: no error catch, a failure propagates to the caller.
	chunkHits, err := dispatcher.Search(ctx, search.Request{
		Collection:     m.schema.Name(schema.CollChunks),
		Query:          query,
		QueryVector:    queryVector,
		Automated:      automated,
		MaxResults:     opts.MaxResults,
		NumCandidates:  m.cfg.NumCandidatesFor(opts.MaxResults),
		VectorIndex:    "vector_index",
		TextIndex:      "text_index",
		EmbeddingField: schema.FieldEmbedding,
		TextField:      schema.FieldText,
		Method:         merge.MethodVector,
		Source:         "memory",
	})
	if err != nil {
		return nil, err
	}

	var all []merge.Hit
	all = append(all, chunkHits...)

	if kbHits, err := dispatcher.Search(ctx, search.Request{
		Collection:     m.schema.Name(schema.CollKBChunks),
		Query:          query,
		QueryVector:    queryVector,
		Automated:      automated,
		MaxResults:     opts.MaxResults,
		NumCandidates:  m.cfg.NumCandidatesFor(opts.MaxResults),
		VectorIndex:    "vector_index",
		TextIndex:      "text_index",
		EmbeddingField: schema.FieldEmbedding,
		TextField:      schema.FieldText,
		Method:         merge.MethodKB,
		Source:         "kb",
	}); err == nil {
		all = append(all, kbHits...)
	}

	if structHits, err := dispatcher.Search(ctx, search.Request{
		Collection:     m.schema.Name(schema.CollStructured),
		Query:          query,
		QueryVector:    queryVector,
		Automated:      automated,
		MaxResults:     opts.MaxResults,
		NumCandidates:  m.cfg.NumCandidatesFor(opts.MaxResults),
		VectorIndex:    "vector_index",
		TextIndex:      "text_index",
		EmbeddingField: schema.FieldEmbedding,
		TextField:      schema.FieldText,
		Method:         merge.MethodStructured,
		Source:         "structured",
	}); err == nil {
		all = append(all, structHits...)
	}

	all = merge.Dedupe(all)
	results := make([]backend.SearchResult, 0, len(all))
	for _, h := range all {
		if h.Score < opts.MinScore {
			continue
		}
		results = append(results, backend.SearchResult{Path: h.Path, Snippet: h.Snippet, Score: h.Score, Source: h.Source})
	}
	if len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	return results, nil
}

// ReadFile resolves relPath under the workspace or one of the configured
// extra paths, denying symlinks and anything outside an .md extension.
func (m *Manager) ReadFile(ctx context.Context, req backend.ReadFileRequest) (string, error) {
	abs, err := m.resolveReadPath(req.RelPath)
	if err != nil {
		return "", err
	}
	text, err := readFileNoSymlink(abs)
	if err != nil {
		return "", err
	}
	if req.From <= 0 && req.Lines <= 0 {
		return text, nil
	}
	return sliceLines(text, req.From, req.Lines), nil
}

func sliceLines(text string, from, count int) string {
	lines := strings.Split(text, "\n")
	if from <= 0 {
		from = 1
	}
	start := from - 1
	if start >= len(lines) {
		return ""
	}
	end := len(lines)
	if count > 0 && start+count < end {
		end = start + count
	}
	return strings.Join(lines[start:end], "\n")
}

func (m *Manager) resolveReadPath(relPath string) (string, error) {
	if strings.TrimSpace(relPath) == "" || !strings.EqualFold(filepath.Ext(relPath), ".md") {
		return "", ErrPathNotAllowed
	}
	// relPath may already be an absolute extra path (as enumerated by sync).
	for _, root := range m.extraPaths {
		if filepath.Clean(relPath) == filepath.Clean(root) {
			return root, nil
		}
	}
	roots := append([]string{m.workspace}, m.extraPaths...)
	for _, root := range roots {
		candidate := filepath.Join(root, relPath)
		if !within(root, candidate) {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrPathNotAllowed
}

// readFileNoSymlink rejects any path component that resolves to a symlink
// before reading the file, closing the gap where a symlink inside an
// otherwise-allowed root could point outside it.
func readFileNoSymlink(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", ErrPathNotAllowed
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", ErrPathNotAllowed
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ErrPathNotAllowed
	}
	return string(data), nil
}

func within(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(rel, "..")
}

// Sync runs a single-flight sync via C3, refreshes cached counts from the
// store on success (falling back to the sync result's deltas if counting
// fails), and triggers the KB auto-refresh when due.
func (m *Manager) Sync(ctx context.Context, opts backend.SyncOptions) (backend.SyncResult, error) {
	if m.isClosed() {
		return backend.SyncResult{}, nil
	}
	result, _, err := m.coord.Sync(ctx, syncengine.RunOptions{
		Reason: opts.Reason,
		Force:  opts.Force,
		Progress: func(e syncengine.ProgressEvent) {
			if opts.Progress != nil {
				opts.Progress(backend.ProgressEvent{Completed: e.Completed, Total: e.Total, Label: e.Label})
			}
		},
	})
	if err != nil {
		return backend.SyncResult{}, err
	}

	m.mu.Lock()
	m.dirty = false
	m.mu.Unlock()

	if fc, cc, countErr := m.countFilesAndChunks(ctx); countErr == nil {
		m.mu.Lock()
		m.fileCount = fc
		m.chunkCount = cc
		m.mu.Unlock()
	} else {
		m.mu.Lock()
		m.fileCount += int64(result.FilesProcessed)
		m.chunkCount += int64(result.ChunksUpserted)
		m.mu.Unlock()
	}

	m.maybeRefreshKB(ctx)

	return backend.SyncResult{
		FilesProcessed: result.FilesProcessed,
		ChunksUpserted: result.ChunksUpserted,
		StaleDeleted:   result.StaleDeleted,
	}, nil
}

func (m *Manager) countFilesAndChunks(ctx context.Context) (int64, int64, error) {
	fc, err := m.schema.Collection(schema.CollFiles).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, err
	}
	cc, err := m.schema.Collection(schema.CollChunks).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, err
	}
	return fc, cc, nil
}

// Status returns a non-blocking snapshot of cached state.
func (m *Manager) Status(ctx context.Context) (backend.Status, error) {
	m.mu.Lock()
	dirty := m.dirty
	fc, cc := m.fileCount, m.chunkCount
	m.mu.Unlock()

	providerID, model := "", ""
	if m.provider != nil {
		providerID, model = m.provider.ID(), m.provider.Model()
	}

	return backend.Status{
		Backend:   "mongodb",
		Provider:  providerID,
		Model:     model,
		Files:     fc,
		Chunks:    cc,
		Dirty:     dirty,
		Workspace: m.workspace,
		Sources:   []string{string(docs.SourceMemory), string(docs.SourceSessions)},
		Extra: map[string]any{
			"deploymentProfile": m.cfg.DeploymentProfile,
			"embeddingMode":     m.cfg.EmbeddingMode,
			"fusionMethod":      m.cfg.FusionMethod,
			"quantization":      m.cfg.Quantization,
			"capabilities":      m.caps,
		},
	}, nil
}

// WriteStructuredMemory upserts by (agentId, type, key), setting mutable
// fields and setOnInsert for createdAt, generating an embedding when the
// manager is in managed mode with a provider attached.
func (m *Manager) WriteStructuredMemory(ctx context.Context, entry backend.StructuredMemoryInput) error {
	entryType := docs.StructuredType(entry.Type)
	id := docs.StructuredEntryID(entry.AgentID, entryType, entry.Key)
	now := time.Now()

	structured := docs.StructuredEntry{
		AgentID:    entry.AgentID,
		Type:       entryType,
		Key:        entry.Key,
		Value:      entry.Value,
		Context:    entry.Context,
		Confidence: entry.Confidence,
		Tags:       entry.Tags,
		Source:     entry.Source,
		UpdatedAt:  now,
	}

	if m.cfg.EmbeddingMode == EmbeddingModeManaged && m.provider != nil {
		vec, err := embedding.RetryEmbedding(ctx, func(ctx context.Context, texts []string) ([][]float32, error) {
			return m.provider.EmbedBatch(ctx, texts)
		}, []string{structured.EmbeddedText()}, 3, 1000)
		if err != nil {
			structured.EmbeddingStatus = docs.EmbeddingFailed
			m.logf("warn", "mongomemory: structured memory embedding failed", "key", entry.Key, "error", err)
		} else {
			structured.Embedding = vec[0]
			structured.Model = m.provider.Model()
			structured.EmbeddingStatus = docs.EmbeddingSuccess
		}
	} else {
		structured.EmbeddingStatus = docs.EmbeddingPending
	}

	update := bson.M{
		"$set": bson.M{
			"agentId":         structured.AgentID,
			"type":            structured.Type,
			"key":             structured.Key,
			"value":           structured.Value,
			"context":         structured.Context,
			"confidence":      structured.Confidence,
			"tags":            structured.Tags,
			"source":          structured.Source,
			"embedding":       structured.Embedding,
			"embeddingStatus": structured.EmbeddingStatus,
			"model":           structured.Model,
			"updatedAt":       structured.UpdatedAt,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err := m.schema.Collection(schema.CollStructured).UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	return err
}

// ProbeEmbeddingAvailability checks readiness to embed: in automated mode
// this is the vector-search capability; in managed mode it's a live
// one-shot embed call.
func (m *Manager) ProbeEmbeddingAvailability(ctx context.Context) error {
	if m.cfg.EmbeddingMode == EmbeddingModeAutomated {
		if !m.caps.VectorSearch {
			return ErrCapabilityAbsent
		}
		return nil
	}
	if m.provider == nil {
		return ErrCapabilityAbsent
	}
	_, err := m.provider.EmbedBatch(ctx, []string{"ping"})
	return err
}

// ProbeVectorAvailability reports the vector-search capability directly,
// without round-tripping to the embedding provider.
func (m *Manager) ProbeVectorAvailability(ctx context.Context) bool {
	return m.caps.VectorSearch
}

// Stats reports source breakdown, embedding coverage, cached-embedding
// count, stale files (when validPaths is supplied), per-collection counts,
// and a best-effort $indexStats rollup that comes back empty rather than
// erroring on servers that don't support it.
func (m *Manager) Stats(ctx context.Context, validPaths []string) (backend.StatsReport, error) {
	report := backend.StatsReport{
		SourceBreakdown:  map[string]int64{},
		EmbeddingStatus:  map[string]int64{},
		CollectionCounts: map[string]int64{},
	}

	for _, source := range []docs.Source{docs.SourceMemory, docs.SourceSessions} {
		n, err := m.schema.Collection(schema.CollChunks).CountDocuments(ctx, bson.M{schema.FieldPath: bson.M{"$exists": true}, "source": source})
		if err == nil {
			report.SourceBreakdown[string(source)] = n
		}
	}

	for _, status := range []docs.EmbeddingStatus{docs.EmbeddingSuccess, docs.EmbeddingFailed, docs.EmbeddingPending} {
		n, err := m.schema.Collection(schema.CollChunks).CountDocuments(ctx, bson.M{schema.FieldEmbeddingStatus: status})
		if err == nil {
			report.EmbeddingStatus[string(status)] = n
		}
	}

	if n, err := m.schema.Collection(schema.CollEmbedCache).CountDocuments(ctx, bson.M{}); err == nil {
		report.CachedEmbeddings = n
	}

	for _, coll := range schema.AllCollections {
		if n, err := m.schema.Collection(coll).CountDocuments(ctx, bson.M{}); err == nil {
			report.CollectionCounts[coll] = n
		}
	}

	if len(validPaths) > 0 {
		valid := make(map[string]bool, len(validPaths))
		for _, p := range validPaths {
			valid[p] = true
		}
		cur, err := m.schema.Collection(schema.CollFiles).Find(ctx, bson.M{})
		if err == nil {
			defer cur.Close(ctx)
			for cur.Next(ctx) {
				var fm docs.FileMeta
				if decErr := cur.Decode(&fm); decErr != nil {
					continue
				}
				if !valid[fm.Path] {
					report.StaleFiles = append(report.StaleFiles, fm.Path)
				}
			}
		}
	}

	cur, err := m.schema.Collection(schema.CollChunks).Aggregate(ctx, bson.A{bson.M{"$indexStats": bson.M{}}})
	if err == nil {
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var stat map[string]any
			if decErr := cur.Decode(&stat); decErr == nil {
				report.IndexStats = append(report.IndexStats, stat)
			}
		}
	}

	return report, nil
}
