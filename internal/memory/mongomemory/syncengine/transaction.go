package syncengine

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/docs"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/schema"
)

// replaceFileAtomically performs delete-by-path + upsert-chunks +
// upsert-metadata so the three appear atomic to readers. It prefers a
// transactional session with majority write concern; the first
// "IllegalOperation"/"NoSuchTransaction" signal (the standalone-topology
// tell) permanently disables transactions for the remainder of this
// Engine's lifetime and the write is retried without one.
func (e *Engine) replaceFileAtomically(ctx context.Context, path string, chunks []docs.Chunk, meta docs.FileMeta) error {
	body := func(sessCtx context.Context) error {
		return e.writeFileBody(sessCtx, path, chunks, meta)
	}

	if !e.useTransactions.Load() {
		return body(ctx)
	}

	err := e.withTransaction(ctx, body)
	if err == nil {
		return nil
	}
	if isStandaloneSignal(err) {
		e.useTransactions.Store(false)
		e.logf("warn", "syncengine: transactions unsupported, falling back to non-transactional writes", "error", err)
		return body(ctx)
	}
	return err
}

// withTransaction acquires a session, runs body within a transaction with
// majority write concern, and releases the session on every exit path
// (including panic/unwind). The operations inside are deterministic
// upserts/deletes, so a driver-level retry of the whole body is safe.
func (e *Engine) withTransaction(ctx context.Context, body func(context.Context) error) error {
	session, err := e.deps.DB.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	wc := writeconcern.New(writeconcern.WMajority())
	txnOpts := options.Transaction().SetWriteConcern(wc)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, body(sessCtx)
	}, txnOpts)
	return err
}

func (e *Engine) writeFileBody(ctx context.Context, path string, chunks []docs.Chunk, meta docs.FileMeta) error {
	chunksColl := e.deps.Schema.Collection(schema.CollChunks)
	filesColl := e.deps.Schema.Collection(schema.CollFiles)

	if _, err := chunksColl.DeleteMany(ctx, bson.M{"path": path}); err != nil {
		return err
	}

	if len(chunks) > 0 {
		models := make([]mongo.WriteModel, len(chunks))
		for i, c := range chunks {
			models[i] = mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": c.ID}).
				SetReplacement(c).
				SetUpsert(true)
		}
		if _, err := chunksColl.BulkWrite(ctx, models); err != nil {
			return err
		}
	}

	_, err := filesColl.ReplaceOne(ctx, bson.M{"_id": path}, meta, options.Replace().SetUpsert(true))
	return err
}

func isStandaloneSignal(err error) bool {
	cmdErr, ok := err.(mongo.CommandError)
	if !ok {
		return false
	}
	switch cmdErr.Name {
	case "IllegalOperation", "NoSuchTransaction":
		return true
	}
	return cmdErr.Code == 20 // IllegalOperation
}
