// Package qdrant adapts a Qdrant collection to the vectorstore interfaces.
// The store embeds record text on the way in and returns scored point ids
// with their stored payloads on the way out.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/tanimon/multimodal-rag-chatbot/embeddings"
	"github.com/tanimon/multimodal-rag-chatbot/vectorstore"
)

// StoreOption customizes a Store.
type StoreOption func(s *Store)

// WithStoreLogger overrides the store logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store indexes embedded records into one Qdrant collection.
type Store struct {
	client     *qdrant.Client
	embedder   embeddings.Embedder
	collection string
	logger     *slog.Logger
}

// NewStore creates a Store bound to the named collection.
func NewStore(client *qdrant.Client, embedder embeddings.Embedder, collection string, opts ...StoreOption) *Store {
	ret := &Store{
		client:     client,
		embedder:   embedder,
		collection: collection,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// AddRecords embeds every record's text and upserts the resulting points in
// a single call. Record ids must be UUIDs.
func (s *Store) AddRecords(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed %d records: %w", len(records), err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("embedder returned %d vectors for %d records", len(vectors), len(records))
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, record := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(record.ID),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(record.Payload),
		}
	}
	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("failed to upsert %d points into %s: %w", len(points), s.collection, err)
	}
	s.logger.Debug("upserted points", "collection", s.collection, "count", len(points))
	return nil
}

// SimilaritySearch embeds the query and returns the k nearest points.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]vectorstore.Match, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	limit := uint64(k)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.collection, err)
	}

	matches := make([]vectorstore.Match, 0, len(points))
	for _, point := range points {
		matches = append(matches, vectorstore.Match{
			ID:      point.GetId().GetUuid(),
			Score:   point.GetScore(),
			Payload: payloadToMap(point.GetPayload()),
		})
	}
	return matches, nil
}

// payloadToMap converts a stored Qdrant payload back to plain Go values.
func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	if payload == nil {
		return nil
	}
	ret := make(map[string]any, len(payload))
	for key, value := range payload {
		ret[key] = plainValue(value)
	}
	return ret
}

func plainValue(value *qdrant.Value) any {
	switch kind := value.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		ret := make([]any, 0, len(items))
		for _, item := range items {
			ret = append(ret, plainValue(item))
		}
		return ret
	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	default:
		return nil
	}
}
