package syncengine

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/chunk"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/docs"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/schema"
)

// syncOneFile runs phases B-E for a single file/session transcript whose
// content has already been read (network/disk I/O happens outside this
// call so the eventual transaction stays short-lived).
func (e *Engine) syncOneFile(ctx context.Context, path, text string, source docs.Source, force bool, chunkCfg chunk.Config, sessionCap int) (chunksUpserted int, processed bool, err error) {
	hash := docs.HashText(text)

	existing, err := e.loadFileMeta(ctx, path)
	if err != nil {
		return 0, false, err
	}
	if !force && existing != nil && existing.Hash == hash {
		return 0, false, nil // hash idempotence
	}

	lines := chunk.Lines(text, chunkCfg)
	if sessionCap > 0 && len(lines) > sessionCap {
		lines = lines[len(lines)-sessionCap:] // most-recent N
	}

	chunks := e.buildChunks(ctx, path, source, lines)

	meta := docs.FileMeta{
		Path:      path,
		Source:    source,
		Hash:      hash,
		MTime:     time.Now(),
		Size:      int64(len(text)),
		UpdatedAt: time.Now(),
	}

	if err := e.replaceFileAtomically(ctx, path, chunks, meta); err != nil {
		return 0, false, err
	}
	return len(chunks), true, nil
}

func (e *Engine) loadFileMeta(ctx context.Context, path string) (*docs.FileMeta, error) {
	var meta docs.FileMeta
	err := e.deps.Schema.Collection(schema.CollFiles).FindOne(ctx, bson.M{"_id": path}).Decode(&meta)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &meta, nil
}

// buildChunks assigns embeddings (when managed) and always assigns an
// embeddingStatus, even on total embedding failure: the chunk is still
// written so full-text search remains usable.
func (e *Engine) buildChunks(ctx context.Context, path string, source docs.Source, lines []chunk.Chunk) []docs.Chunk {
	now := time.Now()
	out := make([]docs.Chunk, len(lines))
	texts := make([]string, len(lines))
	for i, l := range lines {
		out[i] = docs.Chunk{
			ID:        docs.ChunkID(path, l.StartLine, l.EndLine),
			Path:      path,
			Source:    source,
			StartLine: l.StartLine,
			EndLine:   l.EndLine,
			Hash:      docs.HashText(l.Text),
			Text:      l.Text,
			UpdatedAt: now,
		}
		texts[i] = l.Text
	}

	if len(out) == 0 {
		return out
	}
	if !e.deps.Managed || e.deps.Provider == nil {
		for i := range out {
			out[i].EmbeddingStatus = docs.EmbeddingPending
		}
		return out
	}

	vectors, err := embedBatchRetry(ctx, e.deps.Provider, texts)
	if err != nil {
		e.logf("warn", "syncengine: embedding failed for file", "path", path, "error", err)
		for i := range out {
			out[i].EmbeddingStatus = docs.EmbeddingFailed
		}
		return out
	}
	for i := range out {
		out[i].Model = e.deps.Provider.Model()
		out[i].Embedding = vectors[i]
		out[i].EmbeddingStatus = docs.EmbeddingSuccess
	}
	return out
}

// cleanupStale implements phase G: delete chunks and file-metadata entries
// whose path is no longer among the paths processed this run.
func (e *Engine) cleanupStale(ctx context.Context, validPaths map[string]bool) (int, error) {
	cursor, err := e.deps.Schema.Collection(schema.CollFiles).Find(ctx, bson.M{}, nil)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var stale []string
	for cursor.Next(ctx) {
		var meta docs.FileMeta
		if err := cursor.Decode(&meta); err != nil {
			return 0, err
		}
		if !validPaths[meta.Path] {
			stale = append(stale, meta.Path)
		}
	}
	if err := cursor.Err(); err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	filter := bson.M{"path": bson.M{"$in": stale}}
	if _, err := e.deps.Schema.Collection(schema.CollChunks).DeleteMany(ctx, filter); err != nil {
		return 0, err
	}
	filesFilter := bson.M{"_id": bson.M{"$in": stale}}
	if _, err := e.deps.Schema.Collection(schema.CollFiles).DeleteMany(ctx, filesFilter); err != nil {
		return 0, err
	}
	return len(stale), nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
