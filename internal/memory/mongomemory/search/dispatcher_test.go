package search

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/merge"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/schema"
)

// fakeRunner returns canned results by call order, and can be told to fail
// its first N calls so tests can exercise the cascade.
type fakeRunner struct {
	calls   int
	failN   int
	results [][]RawHit
}

func (f *fakeRunner) run(ctx context.Context, collection string, pipeline []bson.D) ([]RawHit, error) {
	idx := f.calls
	f.calls++
	if idx < f.failN {
		return nil, errors.New("simulated stage failure")
	}
	if idx < len(f.results) {
		return f.results[idx], nil
	}
	return nil, nil
}

func baseRequest() Request {
	return Request{
		Collection:     "chunks",
		Query:          "auth flow",
		QueryVector:    []float32{0.1, 0.2},
		MaxResults:     10,
		NumCandidates:  100,
		VectorIndex:    "vector_index",
		TextIndex:      "text_index",
		EmbeddingField: "embedding",
		TextField:      "text",
		Method:         merge.MethodVector,
		Source:         "memory",
	}
}

func TestSearchUsesFusionWhenAvailable(t *testing.T) {
	fr := &fakeRunner{results: [][]RawHit{{{Path: "a", Text: "a text", Score: 0.9}}}}
	d := &Dispatcher{caps: schema.Capabilities{VectorSearch: true, TextSearch: true, ScoreFusion: true}, run: fr}

	hits, err := d.Search(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if fr.calls != 1 {
		t.Fatalf("calls = %d, want 1 (fusion is a single pipeline)", fr.calls)
	}
	if len(hits) != 1 || hits[0].Method != merge.MethodHybrid {
		t.Fatalf("hits = %+v, want one hybrid hit", hits)
	}
}

func TestSearchCascadesToHybridWhenFusionUnavailable(t *testing.T) {
	fr := &fakeRunner{results: [][]RawHit{
		{{Path: "a", Text: "a text", Score: 0.8}},
		{{Path: "b", Text: "b text", Score: 4}},
	}}
	d := &Dispatcher{caps: schema.Capabilities{VectorSearch: true, TextSearch: true}, run: fr}

	hits, err := d.Search(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if fr.calls != 2 {
		t.Fatalf("calls = %d, want 2 (vector then text, merged client-side)", fr.calls)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2 fused results", len(hits))
	}
}

func TestSearchCascadesToVectorOnlyWhenTextUnavailable(t *testing.T) {
	fr := &fakeRunner{results: [][]RawHit{{{Path: "a", Text: "a text", Score: 0.7}}}}
	d := &Dispatcher{caps: schema.Capabilities{VectorSearch: true}, run: fr}

	hits, err := d.Search(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Method != merge.MethodVector {
		t.Fatalf("hits = %+v, want one vector hit", hits)
	}
}

func TestSearchFallsBackToSubstringWhenNothingElseAvailable(t *testing.T) {
	fr := &fakeRunner{results: [][]RawHit{{{Path: "a", Text: "a text", Score: 3}}}}
	d := &Dispatcher{caps: schema.Capabilities{}, run: fr}

	req := baseRequest()
	req.QueryVector = nil

	hits, err := d.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Method != merge.MethodText {
		t.Fatalf("hits = %+v, want one substring-text hit", hits)
	}
}

func TestSearchEmptyPreFilterSetShortCircuits(t *testing.T) {
	fr := &fakeRunner{}
	d := &Dispatcher{caps: schema.Capabilities{VectorSearch: true, TextSearch: true, ScoreFusion: true}, run: fr}

	req := baseRequest()
	req.DocIDFilter = []string{}

	_, err := d.Search(context.Background(), req)
	if !errors.Is(err, ErrEmptyPreFilterSet) {
		t.Fatalf("err = %v, want ErrEmptyPreFilterSet", err)
	}
	if fr.calls != 0 {
		t.Errorf("calls = %d, want 0 (short-circuited before any query)", fr.calls)
	}
}

func TestSearchNoQueryOrVectorReturnsEmpty(t *testing.T) {
	fr := &fakeRunner{}
	d := &Dispatcher{caps: schema.Capabilities{VectorSearch: true, TextSearch: true}, run: fr}

	req := baseRequest()
	req.Query = ""
	req.QueryVector = nil

	hits, err := d.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits != nil {
		t.Errorf("hits = %+v, want nil", hits)
	}
}
