package search

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestVectorSearchStageManagedModeUsesQueryVector(t *testing.T) {
	stage := VectorSearchStage{
		Index:         "vector_index",
		Path:          "embedding",
		QueryVector:   []float32{0.1, 0.2},
		NumCandidates: 150,
		Limit:         10,
	}
	doc := stage.bson()
	inner := doc[0].Value.(bson.D)

	if !hasKey(inner, "queryVector") {
		t.Error("expected managed-mode stage to carry queryVector")
	}
	if hasKey(inner, "query") {
		t.Error("managed-mode stage should not carry a query.text clause")
	}
}

func TestVectorSearchStageAutomatedModeUsesQueryText(t *testing.T) {
	stage := VectorSearchStage{
		Index:     "vector_index",
		Path:      "text",
		QueryText: "how does auth work",
		Automated: true,
		Limit:     10,
	}
	doc := stage.bson()
	inner := doc[0].Value.(bson.D)

	if !hasKey(inner, "query") {
		t.Error("expected automated-mode stage to carry query.text")
	}
	if hasKey(inner, "queryVector") {
		t.Error("automated-mode stage should not carry queryVector")
	}
	if hasKey(inner, "numCandidates") {
		t.Error("automated-mode stage should not carry numCandidates")
	}
}

func TestProjectExcludeStageOmitsEmbeddingField(t *testing.T) {
	stage := ProjectExcludeStage{Fields: []string{"embedding"}}
	doc := stage.bson()
	project := doc[0].Value.(bson.D)

	var excluded bool
	for _, e := range project {
		if e.Key == "embedding" && e.Value == 0 {
			excluded = true
		}
	}
	if !excluded {
		t.Error("expected embedding field excluded from projection")
	}
}

func hasKey(d bson.D, key string) bool {
	for _, e := range d {
		if e.Key == key {
			return true
		}
	}
	return false
}
