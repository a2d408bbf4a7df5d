package schema

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TTLConfig carries the two TTL knobs that affect standard index shape.
// Zero means "disabled" for both fields.
type TTLConfig struct {
	EmbeddingCacheTTLDays int
	MemoryTTLDays         int
}

const (
	indexPath            = "path_1"
	indexPathHash        = "path_1_hash_1"
	indexUpdatedAt       = "updatedAt_1"
	indexDocID           = "docId_1"
	indexTags            = "tags_1"
	indexStructuredKey   = "agentId_1_type_1_key_1"
	indexEmbedCacheKey   = "provider_1_model_1_providerKey_1_hash_1"
	indexEmbedCacheTTL   = "createdAt_1_ttl"
	indexMemoryFilesTTL  = "updatedAt_1_ttl"
	indexTextFallback    = "text_fallback"
)

// EnsureStandardIndexes creates the plain B-tree indexes described in the
// data model, plus the two TTL indexes this core supports. Idempotent.
func (m *Manager) EnsureStandardIndexes(ctx context.Context, ttl TTLConfig) error {
	if err := m.createMany(ctx, CollChunks, []mongo.IndexModel{
		{Keys: bson.D{{Key: FieldPath, Value: 1}}, Options: options.Index().SetName(indexPath)},
		{Keys: bson.D{{Key: FieldPath, Value: 1}, {Key: FieldHash, Value: 1}}, Options: options.Index().SetName(indexPathHash)},
		{Keys: bson.D{{Key: FieldUpdatedAt, Value: 1}}, Options: options.Index().SetName(indexUpdatedAt)},
		{Keys: bson.D{{Key: FieldEmbeddingStatus, Value: 1}, {Key: FieldUpdatedAt, Value: 1}}, Options: options.Index().SetName("embeddingStatus_1_updatedAt_1")},
	}); err != nil {
		return err
	}

	if err := m.createMany(ctx, CollFiles, []mongo.IndexModel{
		{Keys: bson.D{{Key: FieldHash, Value: 1}}, Options: options.Index().SetName(indexPathHash)},
		{Keys: bson.D{{Key: FieldUpdatedAt, Value: 1}}, Options: options.Index().SetName(indexUpdatedAt)},
	}); err != nil {
		return err
	}
	if err := m.ensureMemoryFileTTL(ctx, ttl.MemoryTTLDays); err != nil {
		return err
	}

	if err := m.createMany(ctx, CollKBChunks, []mongo.IndexModel{
		{Keys: bson.D{{Key: FieldDocID, Value: 1}}, Options: options.Index().SetName(indexDocID)},
		{Keys: bson.D{{Key: FieldPath, Value: 1}}, Options: options.Index().SetName(indexPath)},
		{Keys: bson.D{{Key: FieldUpdatedAt, Value: 1}}, Options: options.Index().SetName(indexUpdatedAt)},
	}); err != nil {
		return err
	}

	if err := m.createMany(ctx, CollKBDocuments, []mongo.IndexModel{
		{Keys: bson.D{{Key: FieldHash, Value: 1}}, Options: options.Index().SetName(indexPathHash)},
		{Keys: bson.D{{Key: FieldTags, Value: 1}}, Options: options.Index().SetName(indexTags)},
		{Keys: bson.D{{Key: FieldUpdatedAt, Value: 1}}, Options: options.Index().SetName(indexUpdatedAt)},
	}); err != nil {
		return err
	}

	if err := m.createMany(ctx, CollStructured, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: FieldAgentID, Value: 1}, {Key: FieldType, Value: 1}, {Key: FieldKey, Value: 1}},
			Options: options.Index().SetName(indexStructuredKey).SetUnique(true),
		},
		{Keys: bson.D{{Key: FieldTags, Value: 1}}, Options: options.Index().SetName(indexTags)},
		{Keys: bson.D{{Key: FieldUpdatedAt, Value: 1}}, Options: options.Index().SetName(indexUpdatedAt)},
	}); err != nil {
		return err
	}

	if err := m.createMany(ctx, CollEmbedCache, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: FieldProvider, Value: 1},
				{Key: FieldModel, Value: 1},
				{Key: FieldProviderKey, Value: 1},
				{Key: FieldHash, Value: 1},
			},
			Options: options.Index().SetName(indexEmbedCacheKey).SetUnique(true),
		},
	}); err != nil {
		return err
	}
	if err := m.ensureEmbeddingCacheTTL(ctx, ttl.EmbeddingCacheTTLDays); err != nil {
		return err
	}

	return m.ensureTextFallbackIndexes(ctx)
}

func (m *Manager) createMany(ctx context.Context, collection string, models []mongo.IndexModel) error {
	_, err := m.Collection(collection).Indexes().CreateMany(ctx, models)
	if isIndexAlreadyExists(err) {
		return nil
	}
	return err
}

// ensureTextFallbackIndexes creates one `text`-type index per searchable
// collection, used as the last-resort substring pipeline.
func (m *Manager) ensureTextFallbackIndexes(ctx context.Context) error {
	for _, coll := range Searchable {
		_, err := m.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: FieldText, Value: "text"}},
			Options: options.Index().SetName(indexTextFallback),
		})
		if err != nil && !isIndexAlreadyExists(err) {
			return err
		}
	}
	return nil
}

// ensureEmbeddingCacheTTL creates, updates, or removes the TTL index on
// embedding_cache.createdAt depending on days. Two indexes on the same key
// with different options are disallowed, so a TTL reconfiguration must drop
// the old index (via collMod, or a drop+recreate when collMod can't apply)
// before creating the new one.
func (m *Manager) ensureEmbeddingCacheTTL(ctx context.Context, days int) error {
	coll := m.Collection(CollEmbedCache)
	if days <= 0 {
		return dropIndexIfExists(ctx, coll, indexEmbedCacheTTL)
	}
	seconds := int32(time.Duration(days) * 24 * time.Hour / time.Second)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: FieldCreatedAt, Value: 1}},
		Options: options.Index().SetName(indexEmbedCacheTTL).SetExpireAfterSeconds(seconds),
	})
	if err == nil {
		return nil
	}
	if !isIndexOptionsConflict(err) {
		return err
	}
	if err := m.collModTTL(ctx, CollEmbedCache, indexEmbedCacheTTL, bson.D{{Key: FieldCreatedAt, Value: 1}}, seconds); err != nil {
		return err
	}
	return nil
}

// ensureMemoryFileTTL mirrors ensureEmbeddingCacheTTL for the files
// collection, scoped to source=memory documents only via a partial filter.
func (m *Manager) ensureMemoryFileTTL(ctx context.Context, days int) error {
	coll := m.Collection(CollFiles)
	if days <= 0 {
		return dropIndexIfExists(ctx, coll, indexMemoryFilesTTL)
	}
	seconds := int32(time.Duration(days) * 24 * time.Hour / time.Second)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: FieldUpdatedAt, Value: 1}},
		Options: options.Index().SetName(indexMemoryFilesTTL).
			SetExpireAfterSeconds(seconds).
			SetPartialFilterExpression(bson.D{{Key: FieldSource, Value: "memory"}}),
	})
	if err == nil {
		return nil
	}
	if !isIndexOptionsConflict(err) {
		return err
	}
	return m.collModTTL(ctx, CollFiles, indexMemoryFilesTTL, bson.D{{Key: FieldUpdatedAt, Value: 1}}, seconds)
}

// collModTTL changes expireAfterSeconds on an existing index in place,
// avoiding a drop+recreate window during which the TTL guarantee lapses.
func (m *Manager) collModTTL(ctx context.Context, collection, indexName string, keyPattern bson.D, seconds int32) error {
	return m.db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: m.Name(collection)},
		{Key: "index", Value: bson.D{
			{Key: "name", Value: indexName},
			{Key: "keyPattern", Value: keyPattern},
			{Key: "expireAfterSeconds", Value: seconds},
		}},
	}).Err()
}

func dropIndexIfExists(ctx context.Context, coll *mongo.Collection, name string) error {
	_, err := coll.Indexes().DropOne(ctx, name)
	if err != nil && !isIndexNotFound(err) {
		return err
	}
	return nil
}

func isIndexAlreadyExists(err error) bool {
	cmdErr, ok := asCommandError(err)
	return ok && (cmdErr.Code == 85 || cmdErr.Code == 86)
}

func isIndexOptionsConflict(err error) bool {
	cmdErr, ok := asCommandError(err)
	return ok && (cmdErr.Name == "IndexOptionsConflict" || cmdErr.Code == 85)
}

func isIndexNotFound(err error) bool {
	cmdErr, ok := asCommandError(err)
	return ok && cmdErr.Code == 27
}

func asCommandError(err error) (mongo.CommandError, bool) {
	var cmdErr mongo.CommandError
	if err == nil {
		return cmdErr, false
	}
	if ce, ok := err.(mongo.CommandError); ok {
		return ce, true
	}
	return cmdErr, false
}
