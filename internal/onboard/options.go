// Package onboard builds a starter configuration file for a new memcore
// workspace. It is a thin collaborator around internal/config: it never
// touches the store itself.
package onboard

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Options captures onboarding inputs gathered from a wizard or flags.
type Options struct {
	ConfigPath        string
	WorkspacePath     string
	AgentID           string
	MongoURI          string
	MongoDatabase     string
	DeploymentProfile string
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingAPIKey   string
	EnableChangeStreams bool
}

// BuildConfig builds a config map matching internal/config.Config's YAML
// shape from the gathered options.
func BuildConfig(opts Options) map[string]any {
	workspacePath := strings.TrimSpace(opts.WorkspacePath)
	if workspacePath == "" {
		workspacePath = "."
	}

	profile := strings.TrimSpace(opts.DeploymentProfile)
	if profile == "" {
		profile = "atlas-default"
	}

	cfg := map[string]any{
		"workspace": map[string]any{
			"path":     workspacePath,
			"agent_id": opts.AgentID,
		},
		"mongodb": map[string]any{
			"backend":            "mongodb",
			"uri":                opts.MongoURI,
			"database":           nonEmptyOr(opts.MongoDatabase, "openclaw"),
			"deployment_profile": profile,
			"enable_change_streams": opts.EnableChangeStreams,
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "text",
		},
	}

	if strings.TrimSpace(opts.EmbeddingProvider) != "" {
		cfg["embedding"] = map[string]any{
			"provider": opts.EmbeddingProvider,
			"model":    opts.EmbeddingModel,
			"api_key":  opts.EmbeddingAPIKey,
		}
	}

	return cfg
}

// WriteConfig writes the config map to disk as YAML.
func WriteConfig(path string, raw map[string]any) error {
	if raw == nil {
		return fmt.Errorf("config is nil")
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func nonEmptyOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
