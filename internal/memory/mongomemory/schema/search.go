package schema

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// VectorIndexSpec describes one `$vectorSearch` index, in either managed
// (pre-computed embedding field) or automated (server-side auto-embedding)
// mode. Exactly one of Dimensions or ModelName applies, selected by Mode.
type VectorIndexSpec struct {
	Name          string
	Field         string
	Mode          VectorIndexMode
	Dimensions    int
	Quantization  string
	ModelName     string
	FilterFields  []string
}

// VectorIndexMode distinguishes managed from automated vector indexes.
type VectorIndexMode string

const (
	VectorIndexManaged   VectorIndexMode = "managed"
	VectorIndexAutomated VectorIndexMode = "automated"
)

// TextIndexSpec describes one tokenized `$search` index.
type TextIndexSpec struct {
	Name  string
	Field string
}

const (
	searchIndexNameVector = "vector_index"
	searchIndexNameText   = "text_index"
)

// indexBudget returns the maximum number of search indexes (text+vector
// pairs count as 2) a deployment profile may create, or 0 for unbounded.
func indexBudget(profile string) int {
	if profile == "atlas-m0" {
		return 3
	}
	return 0
}

// PlanSearchIndexes decides which searchable collections get a text+vector
// pair under the profile's index budget, always keeping chunks (the core
// collection). It returns the collections to provision and, separately, the
// ones skipped for the caller to warn about.
func PlanSearchIndexes(profile string) (provision, skipped []string) {
	budget := indexBudget(profile)
	if budget <= 0 {
		return Searchable, nil
	}
	// Each collection needs 2 indexes (text + vector); keep chunks first.
	max := budget / 2
	if max < 1 {
		max = 1
	}
	if max >= len(Searchable) {
		return Searchable, nil
	}
	return Searchable[:max], Searchable[max:]
}

// EnsureSearchIndexes creates the text and vector search indexes for the
// given collections. Caller is expected to have already run
// PlanSearchIndexes to respect the index budget. Creation is attempted via
// the generic createSearchIndexes command so it works across server
// capability tiers; an "unrecognized" failure here means the deployment
// doesn't support Atlas Search-style indexes at all, and is returned as-is
// for the caller to classify.
func (m *Manager) EnsureSearchIndexes(ctx context.Context, collections []string, vec VectorIndexSpec, text TextIndexSpec) error {
	for _, coll := range collections {
		if err := m.createSearchIndex(ctx, coll, vectorIndexDoc(vec)); err != nil {
			return err
		}
		if err := m.createSearchIndex(ctx, coll, textIndexDoc(text)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) createSearchIndex(ctx context.Context, collection string, def bson.M) error {
	cmd := bson.D{
		{Key: "createSearchIndexes", Value: m.Name(collection)},
		{Key: "indexes", Value: []bson.M{def}},
	}
	err := m.db.RunCommand(ctx, cmd).Err()
	if err == nil {
		return nil
	}
	if isDuplicateSearchIndex(err) {
		return nil
	}
	return err
}

func vectorIndexDoc(spec VectorIndexSpec) bson.M {
	field := spec.Field
	if field == "" {
		field = FieldEmbedding
	}
	name := spec.Name
	if name == "" {
		name = searchIndexNameVector
	}

	var fieldDoc bson.M
	if spec.Mode == VectorIndexAutomated {
		fieldDoc = bson.M{
			"type":  "text",
			"path":  FieldText,
			"model": spec.ModelName,
		}
	} else {
		fieldDoc = bson.M{
			"type":          "vector",
			"path":          field,
			"numDimensions": spec.Dimensions,
			"similarity":    "cosine",
		}
		if spec.Quantization != "" && spec.Quantization != "none" {
			fieldDoc["quantization"] = spec.Quantization
		}
	}

	fields := []bson.M{fieldDoc}
	for _, f := range spec.FilterFields {
		fields = append(fields, bson.M{"type": "filter", "path": f})
	}

	return bson.M{
		"name":       name,
		"type":       "vectorSearch",
		"definition": bson.M{"fields": fields},
	}
}

func textIndexDoc(spec TextIndexSpec) bson.M {
	field := spec.Field
	if field == "" {
		field = FieldText
	}
	name := spec.Name
	if name == "" {
		name = searchIndexNameText
	}
	return bson.M{
		"name": name,
		"type": "search",
		"definition": bson.M{
			"mappings": bson.M{
				"dynamic": false,
				"fields": bson.M{
					field: bson.M{"type": "string"},
				},
			},
		},
	}
}

func isDuplicateSearchIndex(err error) bool {
	cmdErr, ok := asCommandError(err)
	return ok && cmdErr.Code == 68 // IndexAlreadyExists
}
