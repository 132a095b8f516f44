// Package service assembles the ingestion and retrieval pipeline from
// configuration and exposes the two operations the CLI needs.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/tanimon/multimodal-rag-chatbot/captioning"
	captionopenai "github.com/tanimon/multimodal-rag-chatbot/captioning/openai"
	"github.com/tanimon/multimodal-rag-chatbot/docstore"
	"github.com/tanimon/multimodal-rag-chatbot/embeddings"
	embedollama "github.com/tanimon/multimodal-rag-chatbot/embeddings/ollama"
	embedopenai "github.com/tanimon/multimodal-rag-chatbot/embeddings/openai"
	"github.com/tanimon/multimodal-rag-chatbot/indexer"
	"github.com/tanimon/multimodal-rag-chatbot/ingestion"
	"github.com/tanimon/multimodal-rag-chatbot/ingestion/crawl"
	"github.com/tanimon/multimodal-rag-chatbot/ingestion/fetch"
	"github.com/tanimon/multimodal-rag-chatbot/ingestion/images"
	"github.com/tanimon/multimodal-rag-chatbot/retriever"
	"github.com/tanimon/multimodal-rag-chatbot/schema"
	"github.com/tanimon/multimodal-rag-chatbot/vectorstore"
	qdrantstore "github.com/tanimon/multimodal-rag-chatbot/vectorstore/qdrant"
)

// Option configures the Service.
type Option func(s *Service)

// WithLogger overrides the service logger, propagated to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithEmbedder overrides the configured embedding backend.
func WithEmbedder(embedder embeddings.Embedder) Option {
	return func(s *Service) {
		s.embedder = embedder
	}
}

// WithCaptioner overrides the configured captioning backend.
func WithCaptioner(captioner captioning.Captioner) Option {
	return func(s *Service) {
		s.captioner = captioner
	}
}

// Service owns the wired pipeline.
type Service struct {
	cfg       *Config
	logger    *slog.Logger
	client    *qdrant.Client
	embedder  embeddings.Embedder
	captioner captioning.Captioner
	store     vectorstore.Store
	manager   vectorstore.Manager
	docs      *docstore.Store
}

// New wires every component from the config. The Qdrant connection is
// established eagerly; model backends are constructed but not contacted.
func New(cfg *Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	if s.embedder == nil {
		embedder, err := newEmbedder(cfg.Embedder)
		if err != nil {
			return nil, err
		}
		s.embedder = embedder
	}
	if s.captioner == nil {
		var captionOpts []captionopenai.Option
		if cfg.Caption.Model != "" {
			captionOpts = append(captionOpts, captionopenai.WithModel(cfg.Caption.Model))
		}
		if cfg.Caption.Prompt != "" {
			captionOpts = append(captionOpts, captionopenai.WithPrompt(cfg.Caption.Prompt))
		}
		captioner, err := captionopenai.NewClient(captionOpts...)
		if err != nil {
			return nil, err
		}
		s.captioner = captioner
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Qdrant.Host,
		Port: cfg.Qdrant.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant at %s:%d: %w", cfg.Qdrant.Host, cfg.Qdrant.Port, err)
	}
	s.client = client
	s.store = qdrantstore.NewStore(client, s.embedder, cfg.Index.Name, qdrantstore.WithStoreLogger(s.logger))
	s.manager = qdrantstore.NewManager(client, qdrantstore.WithManagerLogger(s.logger))

	var docOpts []docstore.Option
	if cfg.DocStore.Prefix != "" {
		docOpts = append(docOpts, docstore.WithPrefix(cfg.DocStore.Prefix))
	}
	docOpts = append(docOpts, docstore.WithLogger(s.logger))
	s.docs = docstore.New(cfg.DocStore.BaseURL, docOpts...)

	return s, nil
}

// newPreprocessor builds a fresh preprocessing pipeline. The image cache is
// scoped to one resolver, so each ingestion run starts with an empty one.
func (s *Service) newPreprocessor() *ingestion.Preprocessor {
	fetcher := fetch.NewFetcher(fetch.WithLogger(s.logger))
	var imageOpts []images.Option
	if s.cfg.Caption.Workers > 0 {
		imageOpts = append(imageOpts, images.WithWorkers(s.cfg.Caption.Workers))
	}
	imageOpts = append(imageOpts, images.WithLogger(s.logger))
	resolver := images.NewResolver(fetcher, s.captioner, imageOpts...)

	var crawlOpts []crawl.Option
	if s.cfg.Crawl.MaxDepth > 0 {
		crawlOpts = append(crawlOpts, crawl.WithMaxDepth(s.cfg.Crawl.MaxDepth))
	}
	crawlOpts = append(crawlOpts, crawl.WithLogger(s.logger))
	crawler := crawl.NewCrawler(crawlOpts...)

	return ingestion.NewPreprocessor(crawler, resolver, ingestion.WithLogger(s.logger))
}

// Close releases the vector database connection.
func (s *Service) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func newEmbedder(cfg EmbedderConfig) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		var opts []embedopenai.ClientOption
		if cfg.BaseURL != "" {
			opts = append(opts, embedopenai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Dimensions > 0 {
			opts = append(opts, embedopenai.WithDimensions(cfg.Dimensions))
		}
		return &embedopenai.Embedder{C: embedopenai.NewClient(cfg.APIKey, cfg.Model, opts...)}, nil
	case "ollama":
		var opts []embedollama.ClientOption
		if cfg.BaseURL != "" {
			opts = append(opts, embedollama.WithBaseURL(cfg.BaseURL))
		}
		return &embedollama.Embedder{C: embedollama.NewClient(cfg.Model, opts...)}, nil
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Provider)
	}
}

func (s *Service) retrieverConfig(refresh, forceCreate bool) retriever.Config {
	return retriever.Config{
		Index:       s.cfg.Index.Name,
		Refresh:     refresh,
		ForceCreate: forceCreate,
		Dimensions:  s.cfg.Index.Dimensions,
		K:           s.cfg.Index.K,
	}
}

// Ingest crawls the configured roots, preprocesses the pages and writes the
// resulting documents to both stores. With refresh set the index and the
// document store are wiped first. It returns the ids of the indexed
// documents.
func (s *Service) Ingest(ctx context.Context, refresh, forceCreate bool) ([]string, error) {
	if _, err := retriever.Build(ctx, s.retrieverConfig(refresh, forceCreate),
		s.manager, s.store, s.docs, retriever.WithLogger(s.logger)); err != nil {
		return nil, err
	}

	documents, err := s.newPreprocessor().Documents(ctx, s.cfg.Roots)
	if err != nil {
		return nil, err
	}
	if len(documents) == 0 {
		s.logger.Warn("nothing to index", "roots", s.cfg.Roots)
		return nil, nil
	}

	idx := indexer.New(s.store, s.docs, indexer.WithLogger(s.logger))
	ids, err := idx.Index(ctx, documents)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ingestion completed", "documents", len(ids))
	return ids, nil
}

// Query searches the index and returns the hydrated documents for the top
// hits.
func (s *Service) Query(ctx context.Context, query string) ([]schema.Document, error) {
	r, err := retriever.Build(ctx, s.retrieverConfig(false, false),
		s.manager, s.store, s.docs, retriever.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	return r.SearchAndHydrate(ctx, query)
}
