package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
roots:
  - https://docs.example.com
index:
  name: docs
  dimensions: 1024
  k: 5
qdrant:
  host: localhost
  port: 6334
docstore:
  baseURL: s3://bucket/rag
  prefix: docs
embedder:
  provider: openai
  model: text-embedding-3-small
  apiKey: ${TEST_EMBED_KEY}
caption:
  model: gpt-4o-mini
  workers: 4
crawl:
  maxDepth: 3
`

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "sk-test")
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Roots) != 1 || cfg.Roots[0] != "https://docs.example.com" {
		t.Errorf("roots: got %v", cfg.Roots)
	}
	if cfg.Index.Name != "docs" || cfg.Index.Dimensions != 1024 || cfg.Index.K != 5 {
		t.Errorf("index: got %+v", cfg.Index)
	}
	if cfg.Qdrant.Host != "localhost" || cfg.Qdrant.Port != 6334 {
		t.Errorf("qdrant: got %+v", cfg.Qdrant)
	}
	if cfg.Embedder.APIKey != "sk-test" {
		t.Errorf("apiKey: got %q, want the expanded env value", cfg.Embedder.APIKey)
	}
	if cfg.Caption.Workers != 4 || cfg.Crawl.MaxDepth != 3 {
		t.Errorf("tuning: got caption=%+v crawl=%+v", cfg.Caption, cfg.Crawl)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{
			Index:    IndexConfig{Name: "docs"},
			Qdrant:   QdrantConfig{Host: "localhost", Port: 6334},
			DocStore: DocStoreConfig{BaseURL: "s3://bucket/rag"},
			Embedder: EmbedderConfig{Provider: "ollama", Model: "bge-m3"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing index", mutate: func(c *Config) { c.Index.Name = "" }, wantErr: "index.name"},
		{name: "missing host", mutate: func(c *Config) { c.Qdrant.Host = "" }, wantErr: "qdrant.host"},
		{name: "missing docstore", mutate: func(c *Config) { c.DocStore.BaseURL = "" }, wantErr: "docstore.baseURL"},
		{name: "missing provider", mutate: func(c *Config) { c.Embedder.Provider = "" }, wantErr: "provider"},
		{name: "unknown provider", mutate: func(c *Config) { c.Embedder.Provider = "cohere" }, wantErr: "cohere"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("got %v, want an error mentioning %q", err, tc.wantErr)
			}
		})
	}
}
