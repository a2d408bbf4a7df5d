package mongomemory

import (
	"fmt"
	"strings"

	"github.com/haasonsaas/nexus-memcore/internal/memory/embeddings"
	"github.com/haasonsaas/nexus-memcore/internal/memory/embeddings/ollama"
	"github.com/haasonsaas/nexus-memcore/internal/memory/embeddings/openai"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/embedding"
)

// NewProvider constructs the managed-mode embedding provider named by cfg,
// adapted to the embedding.Provider contract this core consumes. Only
// relevant when the resolved EmbeddingMode is "managed": automated mode
// never calls this.
func NewProvider(cfg embeddings.Config) (embedding.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		p, err := openai.New(openai.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
		if err != nil {
			return nil, err
		}
		return embedding.Adapt(p, nonEmpty(cfg.Model, "text-embedding-3-small")), nil
	case "ollama":
		p, err := ollama.New(ollama.Config{BaseURL: nonEmpty(cfg.OllamaURL, cfg.BaseURL), Model: cfg.Model})
		if err != nil {
			return nil, err
		}
		return embedding.Adapt(p, nonEmpty(cfg.Model, "nomic-embed-text")), nil
	default:
		return nil, fmt.Errorf("mongomemory: unknown embedding provider %q", cfg.Provider)
	}
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
