package mongomemory

import "github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory/docs"

// The document shapes live in the docs subpackage so that syncengine,
// schema, embedding, and merge can all depend on them without importing
// this package (which depends on all of them). These aliases keep the
// familiar mongomemory.Chunk spelling for external callers.
type (
	Source              = docs.Source
	KBSourceType        = docs.KBSourceType
	EmbeddingStatus     = docs.EmbeddingStatus
	StructuredType      = docs.StructuredType
	Chunk               = docs.Chunk
	FileMeta            = docs.FileMeta
	KBDocument          = docs.KBDocument
	KBSource            = docs.KBSource
	KBChunk             = docs.KBChunk
	StructuredEntry     = docs.StructuredEntry
	EmbeddingCacheEntry = docs.EmbeddingCacheEntry
	MetaDoc             = docs.MetaDoc
)

const (
	SourceMemory   = docs.SourceMemory
	SourceSessions = docs.SourceSessions

	KBSourceFile   = docs.KBSourceFile
	KBSourceURL    = docs.KBSourceURL
	KBSourceManual = docs.KBSourceManual
	KBSourceAPI    = docs.KBSourceAPI

	EmbeddingSuccess = docs.EmbeddingSuccess
	EmbeddingFailed  = docs.EmbeddingFailed
	EmbeddingPending = docs.EmbeddingPending

	StructuredDecision     = docs.StructuredDecision
	StructuredPreference   = docs.StructuredPreference
	StructuredPerson       = docs.StructuredPerson
	StructuredTodo         = docs.StructuredTodo
	StructuredFact         = docs.StructuredFact
	StructuredProject      = docs.StructuredProject
	StructuredArchitecture = docs.StructuredArchitecture
	StructuredCustom       = docs.StructuredCustom
)

// ChunkID builds the deterministic composite chunk id.
func ChunkID(path string, startLine, endLine int) string {
	return docs.ChunkID(path, startLine, endLine)
}
