package mongomemory

import (
	"context"

	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/schema"
)

// runSchemaSetup performs C1's one-time provisioning: collections with
// validators, the standard B-tree/TTL indexes, and (budget permitting)
// search indexes for every searchable collection. Failures provisioning
// search indexes are logged and swallowed: a deployment without Atlas
// Search-style indexes still works via the substring fallback pipeline.
func runSchemaSetup(ctx context.Context, mgr *schema.Manager, cfg Config, logger logFunc) error {
	if err := mgr.EnsureCollections(ctx); err != nil {
		return err
	}

	ttl := schema.TTLConfig{
		EmbeddingCacheTTLDays: cfg.EmbeddingCacheTTLDays,
		MemoryTTLDays:         cfg.MemoryTTLDays,
	}
	if err := mgr.EnsureStandardIndexes(ctx, ttl); err != nil {
		return err
	}

	provision, skipped := schema.PlanSearchIndexes(string(cfg.DeploymentProfile))
	for _, coll := range skipped {
		logger("warn", "mongomemory: search index budget exceeded, skipping collection", "collection", coll, "profile", cfg.DeploymentProfile)
	}

	vec := schema.VectorIndexSpec{
		Name:         "vector_index",
		Field:        schema.FieldEmbedding,
		Dimensions:   cfg.NumDimensions,
		Quantization: string(cfg.Quantization),
	}
	if cfg.EmbeddingMode == EmbeddingModeAutomated {
		vec.Mode = schema.VectorIndexAutomated
		vec.Field = schema.FieldText
		vec.ModelName = "voyage-3"
	} else {
		vec.Mode = schema.VectorIndexManaged
	}
	text := schema.TextIndexSpec{Name: "text_index", Field: schema.FieldText}

	if err := mgr.EnsureSearchIndexes(ctx, provision, vec, text); err != nil {
		logger("warn", "mongomemory: search index provisioning failed", "error", err)
	}
	return nil
}

type logFunc func(level, msg string, args ...any)
