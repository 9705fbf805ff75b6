package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "docufold_test")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")
	os.Setenv("MINIO_ENDPOINT", "localhost:9000")
	os.Setenv("JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.Storage.Namespace != "DOCUMENTATION" {
		t.Fatalf("expected default namespace, got %q", cfg.Storage.Namespace)
	}
	if cfg.Storage.ContentExt != "mdx" {
		t.Fatalf("expected default content extension, got %q", cfg.Storage.ContentExt)
	}
	if cfg.Storage.PublicBaseURL != "http://localhost:9000" {
		t.Fatalf("expected public base URL derived from endpoint, got %q", cfg.Storage.PublicBaseURL)
	}
}
