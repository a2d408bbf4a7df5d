package onboard

import "testing"

func TestBuildConfigDefaults(t *testing.T) {
	cfg := BuildConfig(Options{MongoURI: "mongodb://localhost:27017", AgentID: "main"})

	workspace := cfg["workspace"].(map[string]any)
	if workspace["path"].(string) != "." {
		t.Fatalf("expected default workspace path '.', got %v", workspace["path"])
	}

	mongo := cfg["mongodb"].(map[string]any)
	if mongo["uri"].(string) != "mongodb://localhost:27017" {
		t.Fatalf("expected uri to be carried through")
	}
	if mongo["database"].(string) != "openclaw" {
		t.Fatalf("expected default database 'openclaw', got %v", mongo["database"])
	}
	if mongo["deployment_profile"].(string) != "atlas-default" {
		t.Fatalf("expected default deployment profile, got %v", mongo["deployment_profile"])
	}

	if _, ok := cfg["embedding"]; ok {
		t.Fatalf("embedding section should be omitted when no provider is set")
	}
}

func TestBuildConfigWithEmbeddingProvider(t *testing.T) {
	cfg := BuildConfig(Options{
		MongoURI:          "mongodb://localhost:27017",
		EmbeddingProvider: "openai",
		EmbeddingModel:    "text-embedding-3-small",
		EmbeddingAPIKey:   "key",
	})

	embedding := cfg["embedding"].(map[string]any)
	if embedding["provider"].(string) != "openai" {
		t.Fatalf("expected provider openai")
	}
	if embedding["api_key"].(string) != "key" {
		t.Fatalf("expected api key to be carried through")
	}
}
