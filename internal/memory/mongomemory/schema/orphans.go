package schema

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// OrphanReport is the result of checkKBOrphans: kb-chunks whose docId does
// not reference any existing kb-document. The check only reports; it never
// deletes.
type OrphanReport struct {
	Count      int
	MissingIDs []string
}

// CheckKBOrphans aggregates the distinct docId values referenced by
// kb_chunks and diffs them against existing knowledge_base document ids.
func (m *Manager) CheckKBOrphans(ctx context.Context) (OrphanReport, error) {
	referenced, err := m.Collection(CollKBChunks).Distinct(ctx, FieldDocID, bson.M{})
	if err != nil {
		return OrphanReport{}, err
	}

	ids := make([]string, 0, len(referenced))
	for _, v := range referenced {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	if len(ids) == 0 {
		return OrphanReport{}, nil
	}

	cursor, err := m.Collection(CollKBDocuments).Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
	if err != nil {
		return OrphanReport{}, err
	}
	defer cursor.Close(ctx)

	existing := make(map[string]bool, len(ids))
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return OrphanReport{}, err
		}
		existing[doc.ID] = true
	}
	if err := cursor.Err(); err != nil {
		return OrphanReport{}, err
	}

	var missing []string
	for _, id := range ids {
		if !existing[id] {
			missing = append(missing, id)
		}
	}
	return OrphanReport{Count: len(missing), MissingIDs: missing}, nil
}
