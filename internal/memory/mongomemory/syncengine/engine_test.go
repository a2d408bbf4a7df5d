package syncengine

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/chunk"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/docs"
)

type fakeProvider struct {
	id, model string
	embedErr  error
	vectors   [][]float32
}

func (f *fakeProvider) ID() string          { return f.id }
func (f *fakeProvider) Model() string       { return f.model }
func (f *fakeProvider) MaxInputTokens() int { return 8192 }

func (f *fakeProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{0.1}, nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.vectors, nil
}

func TestBuildChunksUnmanagedAssignsPending(t *testing.T) {
	e := &Engine{deps: Deps{Managed: false}}
	lines := []chunk.Chunk{{Text: "one", StartLine: 1, EndLine: 1}}

	out := e.buildChunks(context.Background(), "MEMORY.md", docs.SourceMemory, lines)

	if len(out) != 1 {
		t.Fatalf("got %d chunks, want 1", len(out))
	}
	if out[0].EmbeddingStatus != docs.EmbeddingPending {
		t.Errorf("status = %v, want pending", out[0].EmbeddingStatus)
	}
	if out[0].ID != docs.ChunkID("MEMORY.md", 1, 1) {
		t.Errorf("id = %q, want deterministic chunk id", out[0].ID)
	}
}

func TestBuildChunksManagedSuccessAssignsVectors(t *testing.T) {
	provider := &fakeProvider{id: "fake", model: "fake-embed-1", vectors: [][]float32{{0.1, 0.2}}}
	e := &Engine{deps: Deps{Managed: true, Provider: provider}}
	lines := []chunk.Chunk{{Text: "hello", StartLine: 1, EndLine: 2}}

	out := e.buildChunks(context.Background(), "notes.md", docs.SourceMemory, lines)

	if len(out) != 1 {
		t.Fatalf("got %d chunks, want 1", len(out))
	}
	if out[0].EmbeddingStatus != docs.EmbeddingSuccess {
		t.Errorf("status = %v, want success", out[0].EmbeddingStatus)
	}
	if out[0].Model != "fake-embed-1" {
		t.Errorf("model = %q, want fake-embed-1", out[0].Model)
	}
	if len(out[0].Embedding) != 2 {
		t.Errorf("embedding = %v, want len 2", out[0].Embedding)
	}
}

func TestBuildChunksManagedFailureStillWritesChunks(t *testing.T) {
	provider := &fakeProvider{id: "fake", model: "fake-embed-1", embedErr: errors.New("provider down")}
	e := &Engine{deps: Deps{Managed: true, Provider: provider}}
	lines := []chunk.Chunk{{Text: "hello", StartLine: 1, EndLine: 2}}

	out := e.buildChunks(context.Background(), "notes.md", docs.SourceMemory, lines)

	if len(out) != 1 {
		t.Fatalf("got %d chunks, want 1 (still written on embed failure)", len(out))
	}
	if out[0].EmbeddingStatus != docs.EmbeddingFailed {
		t.Errorf("status = %v, want failed", out[0].EmbeddingStatus)
	}
	if out[0].Embedding != nil {
		t.Errorf("embedding = %v, want nil", out[0].Embedding)
	}
}

func TestBuildChunksEmptyLinesReturnsEmpty(t *testing.T) {
	e := &Engine{deps: Deps{Managed: true, Provider: &fakeProvider{}}}
	out := e.buildChunks(context.Background(), "empty.md", docs.SourceMemory, nil)
	if len(out) != 0 {
		t.Fatalf("got %d chunks, want 0", len(out))
	}
}

func TestIsNoDocumentsMatchesSentinel(t *testing.T) {
	if !isNoDocuments(mongo.ErrNoDocuments) {
		t.Error("expected mongo.ErrNoDocuments to match")
	}
	if isNoDocuments(errors.New("some other error")) {
		t.Error("expected unrelated error not to match")
	}
	if isNoDocuments(nil) {
		t.Error("expected nil not to match")
	}
}

func TestIsStandaloneSignalMatchesIllegalOperationAndNoSuchTransaction(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"illegal operation by name", mongo.CommandError{Name: "IllegalOperation", Code: 999}, true},
		{"no such transaction by name", mongo.CommandError{Name: "NoSuchTransaction", Code: 999}, true},
		{"illegal operation by code", mongo.CommandError{Name: "SomethingElse", Code: 20}, true},
		{"unrelated command error", mongo.CommandError{Name: "DuplicateKey", Code: 11000}, false},
		{"non command error", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isStandaloneSignal(tc.err); got != tc.want {
				t.Errorf("isStandaloneSignal(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
