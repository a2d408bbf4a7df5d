// Package mongomemory implements the MongoDB-backed agent memory core: schema
// management, embedding lifecycle, incremental sync, capability-adaptive
// search, and cross-source result merging, fronted by a single Manager.
package mongomemory

import (
	"fmt"
	"os"
	"strings"
)

// DeploymentProfile gates index creation and the default embedding mode.
type DeploymentProfile string

const (
	ProfileAtlasDefault     DeploymentProfile = "atlas-default"
	ProfileAtlasM0          DeploymentProfile = "atlas-m0"
	ProfileCommunityMongot  DeploymentProfile = "community-mongot"
	ProfileCommunityBare    DeploymentProfile = "community-bare"
)

// EmbeddingMode selects who produces embedding vectors.
type EmbeddingMode string

const (
	// EmbeddingModeManaged means the application computes and stores vectors.
	EmbeddingModeManaged EmbeddingMode = "managed"
	// EmbeddingModeAutomated means the server computes embeddings at index/query time.
	EmbeddingModeAutomated EmbeddingMode = "automated"
)

// FusionMethod selects the server-side hybrid fusion stage, if any.
type FusionMethod string

const (
	FusionScore FusionMethod = "scoreFusion"
	FusionRank  FusionMethod = "rankFusion"
	FusionJS    FusionMethod = "js-merge"
)

// Quantization controls vector index compression.
type Quantization string

const (
	QuantizationNone   Quantization = "none"
	QuantizationScalar Quantization = "scalar"
	QuantizationBinary Quantization = "binary"
)

// Config contains every recognized `mongodb.*` option from the external
// interfaces contract, plus the KB sub-config.
type Config struct {
	// Backend selects the memory storage engine. Only "mongodb" engages this core.
	Backend string `yaml:"backend"`

	URI              string `yaml:"uri"`
	Database         string `yaml:"database"`
	CollectionPrefix string `yaml:"collection_prefix"`

	DeploymentProfile DeploymentProfile `yaml:"deployment_profile"`
	EmbeddingMode     EmbeddingMode     `yaml:"embedding_mode"`
	FusionMethod      FusionMethod      `yaml:"fusion_method"`

	Quantization   Quantization `yaml:"quantization"`
	NumDimensions  int          `yaml:"num_dimensions"`
	NumCandidates  int          `yaml:"num_candidates"`

	MaxPoolSize      uint64 `yaml:"max_pool_size"`
	MinPoolSize      uint64 `yaml:"min_pool_size"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms"`

	EmbeddingCacheTTLDays int `yaml:"embedding_cache_ttl_days"`
	MemoryTTLDays         int `yaml:"memory_ttl_days"`

	EnableChangeStreams    bool `yaml:"enable_change_streams"`
	ChangeStreamDebounceMs int  `yaml:"change_stream_debounce_ms"`
	WatchDebounceMs        int  `yaml:"watch_debounce_ms"`

	MaxSessionChunks int `yaml:"max_session_chunks"`

	KB KBConfig `yaml:"kb"`
}

// KBConfig configures the independently-indexed knowledge base.
type KBConfig struct {
	// Enabled defaults to true when unset in YAML.
	Enabled *bool `yaml:"enabled"`

	Chunking struct {
		Tokens   int `yaml:"tokens"`
		Overlap  int `yaml:"overlap"`
	} `yaml:"chunking"`

	AutoImportPaths  []string `yaml:"auto_import_paths"`
	AutoRefreshHours float64  `yaml:"auto_refresh_hours"`
	MaxDocumentSize  int64    `yaml:"max_document_size"`
}

const (
	defaultDatabase         = "openclaw"
	envMongoURI             = "OPENCLAW_MONGODB_URI"
	maxNumCandidatesCap     = 10000
	defaultConnectTimeoutMs = 10000
)

// ApplyDefaults fills in zero-valued fields with the documented defaults and
// resolves the URI from the environment fallback when unset in config.
// agentID is used to build the default collection prefix.
func (c *Config) ApplyDefaults(agentID string) {
	if strings.TrimSpace(c.URI) == "" {
		c.URI = os.Getenv(envMongoURI)
	}
	if c.Database == "" {
		c.Database = defaultDatabase
	}
	if c.CollectionPrefix == "" {
		c.CollectionPrefix = fmt.Sprintf("openclaw_%s_", defaultAgentLabel(agentID))
	}
	if c.DeploymentProfile == "" {
		c.DeploymentProfile = ProfileAtlasDefault
	}
	if c.EmbeddingMode == "" {
		switch c.DeploymentProfile {
		case ProfileCommunityMongot, ProfileCommunityBare:
			c.EmbeddingMode = EmbeddingModeManaged
		default:
			c.EmbeddingMode = EmbeddingModeAutomated
		}
	}
	if c.FusionMethod == "" {
		c.FusionMethod = FusionScore
	}
	if c.Quantization == "" {
		c.Quantization = QuantizationNone
	}
	if c.NumDimensions == 0 {
		c.NumDimensions = 1024
	}
	if c.NumCandidates <= 0 || c.NumCandidates > maxNumCandidatesCap {
		if c.NumCandidates > maxNumCandidatesCap {
			c.NumCandidates = maxNumCandidatesCap
		}
	}
	if c.MaxPoolSize == 0 {
		c.MaxPoolSize = 10
	}
	if c.MinPoolSize == 0 {
		c.MinPoolSize = 2
	}
	if c.ConnectTimeoutMs <= 0 {
		c.ConnectTimeoutMs = defaultConnectTimeoutMs
	}
	if c.EmbeddingCacheTTLDays == 0 {
		c.EmbeddingCacheTTLDays = 30
	}
	if c.ChangeStreamDebounceMs <= 0 {
		c.ChangeStreamDebounceMs = 1000
	}
	if c.WatchDebounceMs <= 0 {
		c.WatchDebounceMs = 500
	}
	if c.MaxSessionChunks <= 0 {
		c.MaxSessionChunks = 50
	}
	if c.KB.Enabled == nil {
		enabled := true
		c.KB.Enabled = &enabled
	}
	if c.KB.Chunking.Tokens == 0 {
		c.KB.Chunking.Tokens = 600
	}
	if c.KB.Chunking.Overlap == 0 {
		c.KB.Chunking.Overlap = 100
	}
	if c.KB.MaxDocumentSize == 0 {
		c.KB.MaxDocumentSize = 10 * 1024 * 1024
	}
}

// KBEnabled reports whether the knowledge base is active.
func (c *Config) KBEnabled() bool {
	return c.KB.Enabled == nil || *c.KB.Enabled
}

// NumCandidatesFor returns the vector-search numCandidates value for a given
// requested result count, honoring the hard cap from spec.
func (c *Config) NumCandidatesFor(maxResults int) int {
	want := c.NumCandidates
	floor := maxResults * 20
	if floor < 100 {
		floor = 100
	}
	if want <= 0 || want > floor {
		want = floor
	}
	if want > maxNumCandidatesCap {
		want = maxNumCandidatesCap
	}
	return want
}

func defaultAgentLabel(agentID string) string {
	if strings.TrimSpace(agentID) == "" {
		return "default"
	}
	return agentID
}
