package service

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config wires the whole pipeline: where to crawl, where both stores live
// and which models to use. Values may reference environment variables with
// ${VAR} syntax; they are expanded before parsing.
type Config struct {
	Roots    []string       `yaml:"roots"`
	Index    IndexConfig    `yaml:"index"`
	Qdrant   QdrantConfig   `yaml:"qdrant"`
	DocStore DocStoreConfig `yaml:"docstore"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Caption  CaptionConfig  `yaml:"caption"`
	Crawl    CrawlConfig    `yaml:"crawl"`
}

// IndexConfig names the vector collection and its search parameters.
type IndexConfig struct {
	Name       string `yaml:"name"`
	Dimensions uint64 `yaml:"dimensions"`
	K          int    `yaml:"k"`
}

// QdrantConfig locates the vector database.
type QdrantConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DocStoreConfig locates the document store. The base URL scheme selects
// the backend, e.g. s3://bucket/path.
type DocStoreConfig struct {
	BaseURL string `yaml:"baseURL"`
	Prefix  string `yaml:"prefix"`
}

// EmbedderConfig selects and tunes the embedding backend.
type EmbedderConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"apiKey,omitempty"`
	BaseURL    string `yaml:"baseURL,omitempty"`
	Dimensions int    `yaml:"dimensions,omitempty"`
}

// CaptionConfig tunes image description generation.
type CaptionConfig struct {
	Model   string `yaml:"model,omitempty"`
	Prompt  string `yaml:"prompt,omitempty"`
	Workers int    `yaml:"workers,omitempty"`
}

// CrawlConfig tunes the crawler.
type CrawlConfig struct {
	MaxDepth int `yaml:"maxDepth,omitempty"`
}

// LoadConfig reads a YAML config file, expanding ${VAR} environment
// references first.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields without defaults.
func (c *Config) Validate() error {
	if c.Index.Name == "" {
		return fmt.Errorf("config: index.name is required")
	}
	if c.Qdrant.Host == "" {
		return fmt.Errorf("config: qdrant.host is required")
	}
	if c.DocStore.BaseURL == "" {
		return fmt.Errorf("config: docstore.baseURL is required")
	}
	switch c.Embedder.Provider {
	case "openai", "ollama":
	case "":
		return fmt.Errorf("config: embedder.provider is required")
	default:
		return fmt.Errorf("config: unknown embedder provider %q", c.Embedder.Provider)
	}
	return nil
}
