// Package embeddings defines the embedding capability consumed by the
// vector store adapter on write and by the retriever on query.
package embeddings

import "context"

// Embedder computes vector embeddings for document batches and for
// single query strings. Implementations are expected to be safe for
// concurrent use.
type Embedder interface {
	// EmbedDocuments embeds a batch of document contents, returning one
	// vector per input in the same order.
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
