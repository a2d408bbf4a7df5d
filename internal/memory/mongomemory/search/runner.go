package search

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoRunner is the production runner: it aggregates against a real
// collection and reads back the generic path/text/score projection every
// stage in this package produces.
type mongoRunner struct {
	db *mongo.Database
}

func (r mongoRunner) run(ctx context.Context, collection string, pipeline []bson.D) ([]RawHit, error) {
	cursor, err := r.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []RawHit
	for cursor.Next(ctx) {
		var doc struct {
			Path  string  `bson:"path"`
			Text  string  `bson:"text"`
			Score float64 `bson:"score"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, RawHit{Path: doc.Path, Text: doc.Text, Score: doc.Score})
	}
	return out, cursor.Err()
}
