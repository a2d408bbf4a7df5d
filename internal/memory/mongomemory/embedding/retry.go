package embedding

import (
	"context"
	"time"

	"github.com/haasonsaas/nexus-memcore/internal/backoff"
)

// EmbedBatchFunc is the shape of the embedBatch capability a retry wraps.
type EmbedBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)

// RetryEmbedding attempts fn up to maxAttempts times, sleeping
// backoffBaseMs * 2^(attempt-1) between failures. It surfaces the final
// error unmodified; callers assign embeddingStatus=failed in that case
// rather than treating it as fatal to the caller's own operation.
func RetryEmbedding(ctx context.Context, fn EmbedBatchFunc, texts []string, maxAttempts int, backoffBaseMs float64) ([][]float32, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	policy := backoff.BackoffPolicy{
		InitialMs: backoffBaseMs,
		MaxMs:     backoffBaseMs * float64(int(1)<<uint(maxAttempts)),
		Factor:    2,
		Jitter:    0,
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		vectors, err := fn(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		delay := backoff.ComputeBackoff(policy, attempt)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}
