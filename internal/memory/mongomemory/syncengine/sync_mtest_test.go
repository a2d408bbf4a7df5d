package syncengine

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/chunk"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/docs"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/schema"
)

// These exercise the engine against mongo-driver's own mock deployment
// (mtest.Mock) rather than a live server, the same way the driver tests
// itself: responses are queued in the order the engine is expected to send
// commands, so a reordering of writes inside a phase surfaces as a test
// failure even without a real cluster.

func newTestEngine(mt *mtest.T, managed bool) *Engine {
	e := New(Deps{
		DB:     mt.DB,
		Schema: schema.New(mt.DB, ""),
		Managed: managed,
	})
	e.useTransactions.Store(false) // exercise the non-transactional write path
	return e
}

func TestSyncOneFileSkipsWhenHashUnchanged(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("hash idempotence", func(mt *mtest.T) {
		text := "unchanged content"
		hash := docs.HashText(text)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.files", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "MEMORY.md"},
			{Key: "source", Value: docs.SourceMemory},
			{Key: "hash", Value: hash},
			{Key: "mtime", Value: time.Now()},
			{Key: "size", Value: int64(len(text))},
			{Key: "updatedAt", Value: time.Now()},
		}))

		e := newTestEngine(mt, false)
		upserted, processed, err := e.syncOneFile(context.Background(), "MEMORY.md", text, docs.SourceMemory, false, chunk.MemoryDefaults(), 0)
		if err != nil {
			t.Fatalf("syncOneFile: %v", err)
		}
		if processed {
			t.Error("expected processed=false when hash is unchanged")
		}
		if upserted != 0 {
			t.Errorf("upserted = %d, want 0", upserted)
		}
	})
}

func TestSyncOneFileForceReprocessesEvenWithUnchangedHash(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("force idempotence", func(mt *mtest.T) {
		text := "line one\nline two\n"
		hash := docs.HashText(text)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.files", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "MEMORY.md"},
			{Key: "source", Value: docs.SourceMemory},
			{Key: "hash", Value: hash},
			{Key: "mtime", Value: time.Now()},
			{Key: "size", Value: int64(len(text))},
			{Key: "updatedAt", Value: time.Now()},
		}))
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}})
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 0}})
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 0}})

		e := newTestEngine(mt, false)
		_, processed, err := e.syncOneFile(context.Background(), "MEMORY.md", text, docs.SourceMemory, true, chunk.MemoryDefaults(), 0)
		if err != nil {
			t.Fatalf("syncOneFile: %v", err)
		}
		if !processed {
			t.Error("expected processed=true when force=true, even with an unchanged hash")
		}
	})
}

func TestSyncOneFileFreshIngestWritesChunksAndMeta(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("fresh ingest", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.files", mtest.FirstBatch)) // no existing meta
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})            // DeleteMany by path
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 0}}) // BulkWrite upsert
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 0}}) // file meta upsert

		e := newTestEngine(mt, false)
		upserted, processed, err := e.syncOneFile(context.Background(), "MEMORY.md", "hello world", docs.SourceMemory, false, chunk.MemoryDefaults(), 0)
		if err != nil {
			t.Fatalf("syncOneFile: %v", err)
		}
		if !processed {
			t.Error("expected processed=true for a fresh file")
		}
		if upserted != 1 {
			t.Errorf("upserted = %d, want 1 chunk", upserted)
		}
	})
}

func TestCleanupStaleDeletesPathsNoLongerPresent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("stale cleanup", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "test.files", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "MEMORY.md"},
				{Key: "source", Value: docs.SourceMemory},
			}),
			mtest.CreateCursorResponse(0, "test.files", mtest.NextBatch, bson.D{
				{Key: "_id", Value: "deleted.md"},
				{Key: "source", Value: docs.SourceMemory},
			}),
		)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}}) // delete stale chunks
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}}) // delete stale file meta

		e := New(Deps{DB: mt.DB, Schema: schema.New(mt.DB, "")})
		deleted, err := e.cleanupStale(context.Background(), map[string]bool{"MEMORY.md": true})
		if err != nil {
			t.Fatalf("cleanupStale: %v", err)
		}
		if deleted != 1 {
			t.Errorf("deleted = %d, want 1", deleted)
		}
	})
}
