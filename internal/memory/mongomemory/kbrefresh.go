package mongomemory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/chunk"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/docs"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/embedding"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/schema"
)

const kbMetaLastRefreshKey = "kb_last_refresh"

// maybeRefreshKB is the second half of Sync's contract: once
// AutoRefreshHours have elapsed since the last run, every configured
// auto-import path is rewalked, re-hashed, and re-chunked into the
// knowledge-base collections. A non-positive AutoRefreshHours or an empty
// AutoImportPaths list disables the check entirely.
func (m *Manager) maybeRefreshKB(ctx context.Context) {
	if m.cfg.KB.Enabled != nil && !*m.cfg.KB.Enabled {
		return
	}
	if m.cfg.KB.AutoRefreshHours <= 0 || len(m.cfg.KB.AutoImportPaths) == 0 {
		return
	}

	due, err := m.kbRefreshDue(ctx)
	if err != nil {
		m.logf("warn", "mongomemory: kb refresh due-check failed", "error", err)
		return
	}
	if !due {
		return
	}

	m.refreshKB(ctx)

	if err := m.recordKBRefresh(ctx); err != nil {
		m.logf("warn", "mongomemory: kb refresh timestamp not recorded", "error", err)
	}
}

func (m *Manager) kbRefreshDue(ctx context.Context) (bool, error) {
	var meta docs.MetaDoc
	err := m.schema.Collection(schema.CollMeta).FindOne(ctx, bson.M{"_id": kbMetaLastRefreshKey}).Decode(&meta)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return true, nil
		}
		return false, err
	}

	var last time.Time
	switch v := meta.Value.(type) {
	case time.Time:
		last = v
	case primitive.DateTime:
		last = v.Time()
	default:
		return true, nil
	}
	return time.Since(last).Hours() >= m.cfg.KB.AutoRefreshHours, nil
}

func (m *Manager) recordKBRefresh(ctx context.Context) error {
	now := time.Now()
	_, err := m.schema.Collection(schema.CollMeta).UpdateOne(ctx,
		bson.M{"_id": kbMetaLastRefreshKey},
		bson.M{"$set": bson.M{"value": now, "updatedAt": now}},
		options.Update().SetUpsert(true),
	)
	return err
}

// refreshKB walks every configured auto-import path. A per-document failure
// (unreadable file, oversized document) is logged and does not abort the
// walk, the same per-item failure policy C3 applies to memory/session files.
func (m *Manager) refreshKB(ctx context.Context) {
	chunkCfg := m.kbChunkConfig()
	for _, root := range m.cfg.KB.AutoImportPaths {
		walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
				return nil
			}
			if refreshErr := m.refreshKBDocument(ctx, path, chunkCfg); refreshErr != nil {
				m.logf("warn", "mongomemory: kb document refresh failed", "path", path, "error", refreshErr)
			}
			return nil
		})
		if walkErr != nil {
			m.logf("warn", "mongomemory: kb auto-import path walk failed", "path", root, "error", walkErr)
		}
	}
}

func (m *Manager) kbChunkConfig() chunk.Config {
	cfg := chunk.KBDefaults()
	if m.cfg.KB.Chunking.Tokens > 0 {
		cfg.WindowTokens = m.cfg.KB.Chunking.Tokens
	}
	if m.cfg.KB.Chunking.Overlap > 0 {
		cfg.OverlapTokens = m.cfg.KB.Chunking.Overlap
	}
	return cfg
}

// refreshKBDocument re-indexes one file, skipping the write entirely when
// its content hash matches the stored KBDocument (the same hash-idempotence
// C3 applies to memory files).
func (m *Manager) refreshKBDocument(ctx context.Context, absPath string, chunkCfg chunk.Config) error {
	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}
	if m.cfg.KB.MaxDocumentSize > 0 && info.Size() > m.cfg.KB.MaxDocumentSize {
		return fmt.Errorf("document exceeds max_document_size: %d > %d", info.Size(), m.cfg.KB.MaxDocumentSize)
	}

	text, err := readFileNoSymlink(absPath)
	if err != nil {
		return err
	}
	hash := docs.HashText(text)
	docID := docs.HashText(absPath)

	var existing docs.KBDocument
	err = m.schema.Collection(schema.CollKBDocuments).FindOne(ctx, bson.M{"_id": docID}).Decode(&existing)
	if err == nil && existing.Hash == hash {
		return nil
	}
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	now := time.Now()
	kbDoc := docs.KBDocument{
		ID:        docID,
		Hash:      hash,
		Title:     filepath.Base(absPath),
		Source:    docs.KBSource{Type: docs.KBSourceFile, Ref: absPath},
		UpdatedAt: now,
	}

	lines := chunk.Lines(text, chunkCfg)
	chunks := m.buildKBChunks(ctx, docID, absPath, lines)

	if _, err := m.schema.Collection(schema.CollKBChunks).DeleteMany(ctx, bson.M{"docId": docID}); err != nil {
		return err
	}
	if _, err := m.schema.Collection(schema.CollKBDocuments).ReplaceOne(ctx,
		bson.M{"_id": docID}, kbDoc, options.Replace().SetUpsert(true)); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, len(chunks))
	for i, c := range chunks {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": c.ID}).
			SetReplacement(c).
			SetUpsert(true)
	}
	_, err = m.schema.Collection(schema.CollKBChunks).BulkWrite(ctx, models)
	return err
}

// buildKBChunks mirrors syncengine's buildChunks: every chunk is written
// regardless of embedding outcome, carrying whatever EmbeddingStatus the
// embed attempt produced, so full-text search stays usable even when
// embedding fails outright.
func (m *Manager) buildKBChunks(ctx context.Context, docID, path string, lines []chunk.Chunk) []docs.KBChunk {
	now := time.Now()
	out := make([]docs.KBChunk, len(lines))
	texts := make([]string, len(lines))
	for i, l := range lines {
		out[i] = docs.KBChunk{
			ID:        docs.KBChunkID(docID, l.StartLine, l.EndLine),
			DocID:     docID,
			Path:      path,
			StartLine: l.StartLine,
			EndLine:   l.EndLine,
			Text:      l.Text,
			UpdatedAt: now,
		}
		texts[i] = l.Text
	}
	if len(out) == 0 {
		return out
	}
	if m.provider == nil {
		for i := range out {
			out[i].EmbeddingStatus = docs.EmbeddingPending
		}
		return out
	}

	vectors, err := embedding.RetryEmbedding(ctx, func(ctx context.Context, texts []string) ([][]float32, error) {
		return m.provider.EmbedBatch(ctx, texts)
	}, texts, 3, 1000)
	if err != nil {
		m.logf("warn", "mongomemory: kb chunk embedding failed", "path", path, "error", err)
		for i := range out {
			out[i].EmbeddingStatus = docs.EmbeddingFailed
		}
		return out
	}
	for i := range out {
		out[i].Embedding = vectors[i]
		out[i].EmbeddingStatus = docs.EmbeddingSuccess
	}
	return out
}
