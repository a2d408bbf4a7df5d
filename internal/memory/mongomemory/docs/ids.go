package docs

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashText returns the stable content hash used for change detection across
// files, chunks, and the embedding cache.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// KBChunkID builds the deterministic composite id for a knowledge-base chunk.
func KBChunkID(docID string, startLine, endLine int) string {
	return docID + ":" + itoa(startLine) + ":" + itoa(endLine)
}

// EmbeddingCacheID builds the deterministic composite id for a cached vector,
// keyed by the provider/model pair that produced it, the provider's own
// model-version key (when it reports one), and the input text hash.
func EmbeddingCacheID(provider, model, providerKey, hash string) string {
	return provider + ":" + model + ":" + providerKey + ":" + hash
}

// StructuredEntryID builds the deterministic natural-key id for a structured
// memory entry.
func StructuredEntryID(agentID string, entryType StructuredType, key string) string {
	return agentID + ":" + string(entryType) + ":" + key
}
