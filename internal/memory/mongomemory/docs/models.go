package docs

import "time"

// Source identifies which watched tree a chunk/file came from.
type Source string

const (
	SourceMemory   Source = "memory"
	SourceSessions Source = "sessions"
)

// KBSourceType identifies how a knowledge-base document entered the store.
type KBSourceType string

const (
	KBSourceFile   KBSourceType = "file"
	KBSourceURL    KBSourceType = "url"
	KBSourceManual KBSourceType = "manual"
	KBSourceAPI    KBSourceType = "api"
)

// EmbeddingStatus is the three-state lifecycle field carried by every
// embeddable document.
type EmbeddingStatus string

const (
	EmbeddingSuccess EmbeddingStatus = "success"
	EmbeddingFailed  EmbeddingStatus = "failed"
	EmbeddingPending EmbeddingStatus = "pending"
)

// StructuredType enumerates the typed-key/value observation kinds.
type StructuredType string

const (
	StructuredDecision     StructuredType = "decision"
	StructuredPreference   StructuredType = "preference"
	StructuredPerson       StructuredType = "person"
	StructuredTodo         StructuredType = "todo"
	StructuredFact         StructuredType = "fact"
	StructuredProject      StructuredType = "project"
	StructuredArchitecture StructuredType = "architecture"
	StructuredCustom       StructuredType = "custom"
)

// Chunk is a contiguous slice of a source document.
// _id = "{path}:{startLine}:{endLine}".
type Chunk struct {
	ID              string          `bson:"_id"`
	Path            string          `bson:"path"`
	Source          Source          `bson:"source"`
	StartLine       int             `bson:"startLine"`
	EndLine         int             `bson:"endLine"`
	Hash            string          `bson:"hash"`
	Model           string          `bson:"model,omitempty"`
	Text            string          `bson:"text"`
	Embedding       []float32       `bson:"embedding,omitempty"`
	EmbeddingStatus EmbeddingStatus `bson:"embeddingStatus"`
	UpdatedAt       time.Time       `bson:"updatedAt"`
}

// ChunkID builds the deterministic composite chunk id.
func ChunkID(path string, startLine, endLine int) string {
	return path + ":" + itoa(startLine) + ":" + itoa(endLine)
}

// FileMeta is one entry per indexed source file, keyed by path.
type FileMeta struct {
	Path      string    `bson:"_id"`
	Source    Source    `bson:"source"`
	Hash      string    `bson:"hash"`
	MTime     time.Time `bson:"mtime"`
	Size      int64     `bson:"size"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// KBDocument is a knowledge-base document, independent of the chunk/file pair.
type KBDocument struct {
	ID        string                 `bson:"_id"`
	Hash      string                 `bson:"hash"`
	Title     string                 `bson:"title"`
	Source    KBSource               `bson:"source"`
	Tags      []string               `bson:"tags,omitempty"`
	Metadata  map[string]interface{} `bson:"metadata,omitempty"`
	UpdatedAt time.Time              `bson:"updatedAt"`
}

// KBSource records how a KB document entered the store.
type KBSource struct {
	Type KBSourceType `bson:"type"`
	Ref  string       `bson:"ref,omitempty"`
}

// KBChunk is a chunk of a KB document, related via DocID.
type KBChunk struct {
	ID              string          `bson:"_id"`
	DocID           string          `bson:"docId"`
	Path            string          `bson:"path"`
	StartLine       int             `bson:"startLine"`
	EndLine         int             `bson:"endLine"`
	Text            string          `bson:"text"`
	Embedding       []float32       `bson:"embedding,omitempty"`
	EmbeddingStatus EmbeddingStatus `bson:"embeddingStatus"`
	UpdatedAt       time.Time       `bson:"updatedAt"`
}

// StructuredEntry is a typed key/value observation, natural-keyed by
// (AgentID, Type, Key).
type StructuredEntry struct {
	ID              string          `bson:"_id,omitempty"`
	AgentID         string          `bson:"agentId"`
	Type            StructuredType  `bson:"type"`
	Key             string          `bson:"key"`
	Value           string          `bson:"value"`
	Context         string          `bson:"context,omitempty"`
	Confidence      float64         `bson:"confidence,omitempty"`
	Tags            []string        `bson:"tags,omitempty"`
	Source          string          `bson:"source,omitempty"`
	Embedding       []float32       `bson:"embedding,omitempty"`
	Model           string          `bson:"model,omitempty"`
	EmbeddingStatus EmbeddingStatus `bson:"embeddingStatus"`
	CreatedAt       time.Time       `bson:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt"`
}

// EmbeddedText is the text the embedding pipeline runs over: value plus an
// optional context suffix.
func (e *StructuredEntry) EmbeddedText() string {
	if e.Context == "" {
		return e.Value
	}
	return e.Value + " " + e.Context
}

// EmbeddingCacheEntry holds a previously computed vector, keyed by
// (Provider, Model, ProviderKey, Hash).
type EmbeddingCacheEntry struct {
	ID          string    `bson:"_id"`
	Provider    string    `bson:"provider"`
	Model       string    `bson:"model"`
	ProviderKey string    `bson:"providerKey"`
	Hash        string    `bson:"hash"`
	Vector      []float32 `bson:"vector"`
	CreatedAt   time.Time `bson:"createdAt"`
}

// MetaDoc holds small process/store-wide key-value state.
type MetaDoc struct {
	Key       string      `bson:"_id"`
	Value     interface{} `bson:"value"`
	UpdatedAt time.Time   `bson:"updatedAt"`
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
