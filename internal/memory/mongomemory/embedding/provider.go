// Package embedding wraps an external embedding provider with the retry and
// token-limit policy the memory core requires (C2 in the component design).
// It owns no persistent state: it is a pure function wrapper over a provider
// capability supplied by the caller.
package embedding

import "context"

// Provider is the embedding-provider contract the memory core consumes. It
// is a shared, immutable collaborator passed in by value, never owned.
type Provider interface {
	ID() string
	Model() string
	MaxInputTokens() int

	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// legacyProvider adapts the older embeddings.Provider interface (Name,
// Dimension, MaxBatchSize, Embed, EmbedBatch) to the Provider contract above.
type legacyProvider struct {
	inner     LegacyEmbedder
	model     string
	maxTokens int
}

// LegacyEmbedder is the narrow surface of internal/memory/embeddings.Provider
// this adapter depends on, kept separate to avoid a hard import of that
// package's concrete provider constructors from every caller of Adapt.
type LegacyEmbedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Adapt wraps a LegacyEmbedder (the ollama/openai concrete providers) as a
// Provider, resolving its token limit from the shared model table.
func Adapt(inner LegacyEmbedder, model string) Provider {
	return &legacyProvider{inner: inner, model: model, maxTokens: MaxTokensFor(model)}
}

func (p *legacyProvider) ID() string           { return p.inner.Name() }
func (p *legacyProvider) Model() string        { return p.model }
func (p *legacyProvider) MaxInputTokens() int  { return p.maxTokens }

func (p *legacyProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return p.inner.Embed(ctx, text)
}

func (p *legacyProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return p.inner.EmbedBatch(ctx, texts)
}
