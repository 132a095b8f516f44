// Package indexer performs the dual write: every document gets a fresh
// UUID, a shrunk projection of it goes to the vector store and the full
// record goes to the document store under the same id.
package indexer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tanimon/multimodal-rag-chatbot/docstore"
	"github.com/tanimon/multimodal-rag-chatbot/schema"
	"github.com/tanimon/multimodal-rag-chatbot/vectorstore"
)

// IDKey is the payload field carrying the join key between the vector
// store and the document store.
const IDKey = "doc_id"

// DocumentStore is the hydration-side sink of the dual write.
type DocumentStore interface {
	SetMany(ctx context.Context, entries []docstore.Entry) error
}

// Option customizes an Indexer.
type Option func(i *Indexer)

// WithLogger overrides the indexer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Indexer) {
		i.logger = logger
	}
}

// Indexer writes documents to both stores under shared ids.
type Indexer struct {
	vectors vectorstore.Store
	docs    DocumentStore
	logger  *slog.Logger
}

// New creates an Indexer over the two sinks.
func New(vectors vectorstore.Store, docs DocumentStore, opts ...Option) *Indexer {
	ret := &Indexer{
		vectors: vectors,
		docs:    docs,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Shrink returns a copy of the payload without bulky fields. Raw image
// data never reaches the vector store; only the document store keeps it.
// Applying Shrink to an already shrunk payload changes nothing.
func Shrink(payload map[string]any) map[string]any {
	ret := make(map[string]any, len(payload))
	for key, value := range payload {
		if key == schema.KeyBase64 {
			continue
		}
		ret[key] = value
	}
	return ret
}

// Index assigns a fresh id to every document and writes both stores. Ids
// are never reused across calls; re-indexing the same document produces a
// new pair of entries. The vector store is written first, so a document
// store failure leaves already-committed vectors behind and the error says
// so.
func (i *Indexer) Index(ctx context.Context, documents []schema.Document) ([]string, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	ids := make([]string, len(documents))
	records := make([]vectorstore.Record, len(documents))
	entries := make([]docstore.Entry, len(documents))
	for n, document := range documents {
		id := uuid.NewString()
		ids[n] = id

		payload := Shrink(document.Metadata.Payload())
		payload[IDKey] = id
		records[n] = vectorstore.Record{
			ID:      id,
			Text:    document.PageContent,
			Payload: payload,
		}
		entries[n] = docstore.Entry{Key: id, Document: document}
	}

	i.logger.Info("indexing documents", "count", len(ids), "ids", ids)

	if err := i.vectors.AddRecords(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to index %d documents into the vector store: %w", len(records), err)
	}
	if err := i.docs.SetMany(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to store %d documents already indexed under ids %v: %w", len(entries), ids, err)
	}
	return ids, nil
}
