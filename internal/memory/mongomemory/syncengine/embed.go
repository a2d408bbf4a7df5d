package syncengine

import (
	"context"

	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/embedding"
)

const (
	embedMaxAttempts   = 3
	embedBackoffBaseMs = 1000
)

func embedBatchRetry(ctx context.Context, provider embedding.Provider, texts []string) ([][]float32, error) {
	return embedding.RetryEmbedding(ctx, func(ctx context.Context, texts []string) ([][]float32, error) {
		return provider.EmbedBatch(ctx, texts)
	}, texts, embedMaxAttempts, embedBackoffBaseMs)
}
