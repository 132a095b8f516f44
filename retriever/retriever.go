// Package retriever assembles the search side of the pipeline on top of an
// existing or freshly provisioned index, and hydrates vector hits into full
// documents from the document store.
package retriever

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/tanimon/multimodal-rag-chatbot/schema"
	"github.com/tanimon/multimodal-rag-chatbot/vectorstore"
)

const (
	// DefaultDimensions is the embedding width new indexes are provisioned
	// with.
	DefaultDimensions = 1024
	// DefaultK is the number of hits a search returns unless overridden.
	DefaultK = 5
)

// Config controls how Build treats the named index.
type Config struct {
	// Index is the vector collection name.
	Index string
	// Refresh wipes both stores and recreates the index before use.
	Refresh bool
	// ForceCreate provisions a missing index instead of failing.
	ForceCreate bool
	// Dimensions overrides the embedding width for newly created indexes.
	Dimensions uint64
	// K overrides how many hits a search returns.
	K int
}

// DocumentStore is the hydration source, and during a refresh also the
// target of the wipe.
type DocumentStore interface {
	GetMany(ctx context.Context, keys []string) ([]*schema.Document, error)
	DeleteMany(ctx context.Context, keys []string) error
	Keys(ctx context.Context, prefix string) iter.Seq2[string, error]
}

// ConfigError reports an index that does not exist and was not allowed to
// be created.
type ConfigError struct {
	Index string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("index %q does not exist; enable force create or refresh to provision it", e.Index)
}

// Option customizes a Retriever.
type Option func(r *Retriever)

// WithLogger overrides the retriever logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) {
		r.logger = logger
	}
}

// Retriever searches the vector store and hydrates hits from the document
// store.
type Retriever struct {
	store  vectorstore.Store
	docs   DocumentStore
	k      int
	logger *slog.Logger
}

// Build prepares the index per cfg and returns a Retriever over it. With
// Refresh set it deletes every stored document, drops the index if present
// and recreates it empty. Without Refresh a missing index is an error
// unless ForceCreate is set; nothing is written before that check.
func Build(ctx context.Context, cfg Config, manager vectorstore.Manager, store vectorstore.Store, docs DocumentStore, opts ...Option) (*Retriever, error) {
	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}

	ret := &Retriever{
		store:  store,
		docs:   docs,
		k:      cfg.K,
		logger: slog.Default(),
	}
	if ret.k <= 0 {
		ret.k = DefaultK
	}
	for _, opt := range opts {
		opt(ret)
	}

	exists, err := manager.Exists(ctx, cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to check index %s: %w", cfg.Index, err)
	}

	switch {
	case cfg.Refresh:
		var keys []string
		for key, err := range docs.Keys(ctx, "") {
			if err != nil {
				return nil, fmt.Errorf("failed to enumerate stored documents: %w", err)
			}
			keys = append(keys, key)
		}
		if err := docs.DeleteMany(ctx, keys); err != nil {
			return nil, fmt.Errorf("failed to wipe the document store: %w", err)
		}
		if exists {
			if err := manager.Drop(ctx, cfg.Index); err != nil {
				return nil, err
			}
		}
		if err := manager.Create(ctx, cfg.Index, dimensions); err != nil {
			return nil, err
		}
		ret.logger.Info("refreshed index", "index", cfg.Index, "documents_wiped", len(keys))
	case !exists && cfg.ForceCreate:
		if err := manager.Create(ctx, cfg.Index, dimensions); err != nil {
			return nil, err
		}
	case !exists:
		return nil, &ConfigError{Index: cfg.Index}
	}

	return ret, nil
}

// Search returns the ids of the k nearest documents. A non-positive k
// falls back to the configured default.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		k = r.k
	}
	matches, err := r.store.SimilaritySearch(ctx, query, k)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, match.ID)
	}
	return ids, nil
}

// SearchAndHydrate searches with the configured k and loads the full
// documents for every hit. A hit whose document is missing from the store
// is logged and dropped.
func (r *Retriever) SearchAndHydrate(ctx context.Context, query string) ([]schema.Document, error) {
	ids, err := r.Search(ctx, query, r.k)
	if err != nil {
		return nil, err
	}
	loaded, err := r.docs.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate %d hits: %w", len(ids), err)
	}
	documents := make([]schema.Document, 0, len(loaded))
	for i, document := range loaded {
		if document == nil {
			r.logger.Warn("search hit has no stored document", "key", ids[i])
			continue
		}
		documents = append(documents, *document)
	}
	return documents, nil
}
