package search

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const kbPreFilterCap = 10000

// ResolveKBDocIDs runs a metadata pre-filter over the knowledge-base
// documents collection and returns the bounded set of matching ids (capped
// at 10,000) that should restrict the kb_chunks search. metadata may
// contain any subset of tags/category/source; an empty metadata filter
// matches every document (no restriction needed by the caller, but the
// capped id list is still returned so downstream code has one code path).
func ResolveKBDocIDs(ctx context.Context, coll *mongo.Collection, metadata bson.M) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetLimit(kbPreFilterCap)
	cursor, err := coll.Find(ctx, metadata, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}
