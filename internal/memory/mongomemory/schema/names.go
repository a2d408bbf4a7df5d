// Package schema declares the MongoDB collections, validators, indexes, and
// capability probes used by the memory core (C1 in the component design).
package schema

// Suffix names for the seven prefix-namespaced collections.
const (
	CollChunks      = "chunks"
	CollFiles       = "files"
	CollEmbedCache  = "embedding_cache"
	CollMeta        = "meta"
	CollKBDocuments = "knowledge_base"
	CollKBChunks    = "kb_chunks"
	CollStructured  = "structured_mem"
)

// AllCollections lists every collection the schema manager provisions.
var AllCollections = []string{
	CollChunks,
	CollFiles,
	CollEmbedCache,
	CollMeta,
	CollKBDocuments,
	CollKBChunks,
	CollStructured,
}

// Searchable names the collections that carry a text and a vector search
// index, subject to the per-profile index budget.
var Searchable = []string{CollChunks, CollKBChunks, CollStructured}

// Field name constants shared across validators, indexes, and pipelines.
const (
	FieldPath            = "path"
	FieldText            = "text"
	FieldHash            = "hash"
	FieldUpdatedAt       = "updatedAt"
	FieldDocID           = "docId"
	FieldTags            = "tags"
	FieldAgentID         = "agentId"
	FieldType            = "type"
	FieldKey             = "key"
	FieldValue           = "value"
	FieldSource          = "source"
	FieldSourceType      = "source.type"
	FieldConfidence      = "confidence"
	FieldStartLine       = "startLine"
	FieldEndLine         = "endLine"
	FieldTitle           = "title"
	FieldEmbedding       = "embedding"
	FieldEmbeddingStatus = "embeddingStatus"
	FieldProvider        = "provider"
	FieldModel           = "model"
	FieldProviderKey     = "providerKey"
	FieldCreatedAt       = "createdAt"
)
