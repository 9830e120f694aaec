package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Embedding: EmbeddingConfig{
			APIKey: "test-key",
			Model:  "text-embedding-3-small",
		},
		Generation: GenerationConfig{
			APIKey: "test-key",
			Model:  "gpt-4o-mini",
		},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_MissingProviderSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"embedding api key", func(c *Config) { c.Embedding.APIKey = "" }},
		{"embedding model", func(c *Config) { c.Embedding.Model = "" }},
		{"generation api key", func(c *Config) { c.Generation.APIKey = "" }},
		{"generation model", func(c *Config) { c.Generation.Model = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error for missing %s", tt.name)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Index.Collection != "knowledge" {
		t.Errorf("expected Collection='knowledge', got %q", cfg.Index.Collection)
	}
	if cfg.Index.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Index.HNSWM)
	}
	if cfg.Index.HNSWEFConstruct != 200 {
		t.Errorf("expected HNSWEFConstruct=200, got %d", cfg.Index.HNSWEFConstruct)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Search.TimeoutSec != 15 {
		t.Errorf("expected Search.TimeoutSec=15, got %d", cfg.Search.TimeoutSec)
	}
	if cfg.Notion.TimeoutSec != 30 {
		t.Errorf("expected Notion.TimeoutSec=30, got %d", cfg.Notion.TimeoutSec)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:  DatabaseConfig{ReadinessTimeout: 15},
		Index:     IndexConfig{Collection: "custom", HNSWM: 32, HNSWEFConstruct: 400},
		Embedding: EmbeddingConfig{Dimensions: 768},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Index.Collection != "custom" {
		t.Errorf("expected Collection='custom', got %q", cfg.Index.Collection)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if cfg.Embedding.Dimensions != 768 {
		t.Errorf("expected Dimensions=768, got %d", cfg.Embedding.Dimensions)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("KNOSIS_TEST_TOKEN", "tok-123")

	in := []byte("token: ${KNOSIS_TEST_TOKEN}\nurl: ${KNOSIS_TEST_MISSING:-http://fallback}\n")
	out := string(expandEnvVars(in))

	if out != "token: tok-123\nurl: http://fallback\n" {
		t.Errorf("expanded = %q", out)
	}
}
