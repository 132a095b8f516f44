// Package vectorstore defines the similarity-search side of the dual write.
// Implementations index shrunk document projections under caller-supplied
// ids and answer nearest-neighbour queries with those ids.
package vectorstore

import "context"

// Record is one searchable projection: the text to embed plus a flat
// payload stored alongside the vector. The payload must already be shrunk,
// bulky fields such as raw image data do not belong here.
type Record struct {
	ID      string
	Text    string
	Payload map[string]any
}

// Match is a search hit with its join key back to the document store.
type Match struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// Store indexes records into a single collection and searches it.
type Store interface {
	AddRecords(ctx context.Context, records []Record) error
	SimilaritySearch(ctx context.Context, query string, k int) ([]Match, error)
}

// Manager administers collections by name.
type Manager interface {
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name string, dimensions uint64) error
	Drop(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}
