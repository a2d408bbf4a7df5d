package mongomemory

import "github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/docs"

// HashText returns the stable content hash used for change detection.
func HashText(text string) string { return docs.HashText(text) }

// KBChunkID builds the deterministic composite id for a knowledge-base chunk.
func KBChunkID(docID string, startLine, endLine int) string {
	return docs.KBChunkID(docID, startLine, endLine)
}

// EmbeddingCacheID builds the deterministic composite id for a cached vector.
func EmbeddingCacheID(provider, model, providerKey, hash string) string {
	return docs.EmbeddingCacheID(provider, model, providerKey, hash)
}

// StructuredEntryID builds the deterministic natural-key id for a structured
// memory entry.
func StructuredEntryID(agentID string, entryType StructuredType, key string) string {
	return docs.StructuredEntryID(agentID, entryType, key)
}
