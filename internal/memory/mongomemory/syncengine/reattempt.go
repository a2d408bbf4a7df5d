package syncengine

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/docs"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/schema"
)

const (
	reattemptPageSize  = 100
	reattemptBatchSize = 20
)

// deferredReattempt runs at the start of each sync: page through up to 100
// chunks with embeddingStatus=failed (oldest updatedAt first), embed in
// batches of 20, and transition successful ones to success. A batch that
// still fails stays failed for the next cycle.
func (e *Engine) deferredReattempt(ctx context.Context) {
	if !e.deps.Managed || e.deps.Provider == nil {
		return
	}

	coll := e.deps.Schema.Collection(schema.CollChunks)
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: 1}}).
		SetLimit(reattemptPageSize)

	cursor, err := coll.Find(ctx, bson.M{"embeddingStatus": docs.EmbeddingFailed}, opts)
	if err != nil {
		e.logf("warn", "syncengine: deferred embedding reattempt query failed", "error", err)
		return
	}
	defer cursor.Close(ctx)

	var pending []docs.Chunk
	for cursor.Next(ctx) {
		var c docs.Chunk
		if err := cursor.Decode(&c); err != nil {
			e.logf("warn", "syncengine: deferred embedding reattempt decode failed", "error", err)
			continue
		}
		pending = append(pending, c)
	}

	for start := 0; start < len(pending); start += reattemptBatchSize {
		end := start + reattemptBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		e.reattemptBatch(ctx, coll, pending[start:end])
	}
}

func (e *Engine) reattemptBatch(ctx context.Context, coll *mongo.Collection, batch []docs.Chunk) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	vectors, err := embedBatchRetry(ctx, e.deps.Provider, texts)
	if err != nil {
		e.logf("debug", "syncengine: deferred embedding reattempt still failing", "count", len(batch), "error", err)
		return
	}

	for i, c := range batch {
		_, err := coll.UpdateOne(ctx,
			bson.M{"_id": c.ID},
			bson.M{"$set": bson.M{
				"embedding":       vectors[i],
				"embeddingStatus": docs.EmbeddingSuccess,
				"model":           e.deps.Provider.Model(),
				"updatedAt":       time.Now(),
			}},
			options.Update(),
		)
		if err != nil {
			e.logf("warn", "syncengine: deferred embedding reattempt write failed", "path", c.Path, "error", err)
		}
	}
}
