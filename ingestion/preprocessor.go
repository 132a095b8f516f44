// Package ingestion turns root URLs into normalized, chunked documents
// ready for indexing. It crawls pages, splits their markdown bodies and
// replaces every referenced image with a generated description document.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/tanimon/multimodal-rag-chatbot/ingestion/crawl"
	"github.com/tanimon/multimodal-rag-chatbot/schema"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

// Crawler walks a root URL and returns the pages it reached.
type Crawler interface {
	Crawl(ctx context.Context, root string) ([]crawl.Page, error)
}

// ImageResolver extracts image references from markdown, fetches their
// payloads and turns them into description documents.
type ImageResolver interface {
	Resolve(ctx context.Context, texts []string) []schema.ImageDescriptor
	Describe(ctx context.Context, descriptors []schema.ImageDescriptor) []schema.Document
}

// Option customizes a Preprocessor.
type Option func(p *Preprocessor)

// WithChunkSize overrides the splitter chunk size.
func WithChunkSize(size int) Option {
	return func(p *Preprocessor) {
		p.chunkSize = size
	}
}

// WithChunkOverlap overrides the splitter chunk overlap.
func WithChunkOverlap(overlap int) Option {
	return func(p *Preprocessor) {
		p.chunkOverlap = overlap
	}
}

// WithLogger overrides the preprocessor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Preprocessor) {
		p.logger = logger
	}
}

// Preprocessor produces the documents to index from a set of root URLs.
type Preprocessor struct {
	crawler      Crawler
	images       ImageResolver
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// NewPreprocessor creates a Preprocessor with the supplied options.
func NewPreprocessor(crawler Crawler, images ImageResolver, opts ...Option) *Preprocessor {
	ret := &Preprocessor{
		crawler:      crawler,
		images:       images,
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Documents crawls every root, normalizes page metadata, chunks the page
// bodies and appends one description document per referenced image. A root
// that fails to crawl is logged and skipped; a page whose metadata is
// malformed aborts the run.
func (p *Preprocessor) Documents(ctx context.Context, roots []string) ([]schema.Document, error) {
	var pages []crawl.Page
	for _, root := range roots {
		crawled, err := p.crawler.Crawl(ctx, root)
		if err != nil {
			p.logger.Error("failed to crawl root", "root", root, "error", err)
			continue
		}
		pages = append(pages, crawled...)
	}

	texts := make([]schema.Document, 0, len(pages))
	contents := make([]string, 0, len(pages))
	for _, page := range pages {
		meta, err := schema.TextMetadataFromPage(page.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize page metadata: %w", err)
		}
		texts = append(texts, schema.Document{PageContent: page.Content, Metadata: meta})
		contents = append(contents, page.Content)
	}

	chunks, err := p.split(texts)
	if err != nil {
		return nil, err
	}

	descriptors := p.images.Resolve(ctx, contents)
	described := p.images.Describe(ctx, descriptors)

	p.logger.Info("preprocessing completed",
		"roots", len(roots), "pages", len(pages), "chunks", len(chunks), "images", len(described))
	return append(chunks, described...), nil
}

// split cuts each text document into overlapping chunks, every chunk
// inheriting its source document's metadata.
func (p *Preprocessor) split(documents []schema.Document) ([]schema.Document, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.chunkOverlap),
	)
	var ret []schema.Document
	for _, document := range documents {
		pieces, err := splitter.SplitText(document.PageContent)
		if err != nil {
			return nil, fmt.Errorf("failed to split document: %w", err)
		}
		for _, piece := range pieces {
			ret = append(ret, schema.Document{PageContent: piece, Metadata: document.Metadata})
		}
	}
	return ret, nil
}
