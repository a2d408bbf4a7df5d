// Package config loads and validates configuration for the memory core.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/haasonsaas/nexus-memcore/internal/memory/embeddings"
	"github.com/haasonsaas/nexus-memcore/internal/memory/mongomemory"
)

// Config is the top-level configuration for a memcore process.
type Config struct {
	Workspace WorkspaceConfig    `yaml:"workspace"`
	Memory    mongomemory.Config `yaml:"mongodb"`
	Embedding embeddings.Config  `yaml:"embedding"`
	Logging   LoggingConfig      `yaml:"logging"`
}

// WorkspaceConfig describes the directory tree the sync engine watches.
type WorkspaceConfig struct {
	// Path is the workspace root. Defaults to the current directory.
	Path string `yaml:"path"`

	// ExtraPaths are additional directories or files outside Path that are
	// also watched and indexed, and that readFile may resolve under.
	ExtraPaths []string `yaml:"extra_paths"`

	// AgentID enables session-transcript sync when non-empty.
	AgentID string `yaml:"agent_id"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level sets the minimum log level: "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format specifies output format: "json" or "text".
	Format string `yaml:"format"`
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	if p := os.Getenv("OPENCLAW_CONFIG"); strings.TrimSpace(p) != "" {
		return p
	}
	return "openclaw.yaml"
}

// Validate checks required fields and applies cross-field defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Workspace.Path) == "" {
		c.Workspace.Path = "."
	}
	if c.Memory.Backend != "" && c.Memory.Backend != "mongodb" {
		return fmt.Errorf("unknown backend: %s", c.Memory.Backend)
	}
	return nil
}

// Load reads path (resolving any $include directives and expanding
// environment references), decodes it strictly, and validates the result.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
