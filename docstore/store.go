// Package docstore persists full documents, image payloads included, in an
// object store keyed by document id. It is the hydration side of the dual
// write: the vector store holds the searchable projection, this store holds
// the authoritative record.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/tanimon/multimodal-rag-chatbot/schema"
)

const defaultPrefix = "docs"

// Entry pairs a document with its id for a batched write.
type Entry struct {
	Key      string
	Document schema.Document
}

// Option customizes a Store.
type Option func(s *Store)

// WithPrefix overrides the path segment documents are stored under.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithService overrides the storage service, mostly for tests.
func WithService(fs afs.Service) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithLogger overrides the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store reads and writes JSON-serialized documents under
// baseURL/prefix/key. The base URL scheme selects the backend, e.g.
// s3://bucket/path or mem://localhost/path.
type Store struct {
	fs      afs.Service
	baseURL string
	prefix  string
	logger  *slog.Logger
}

// New creates a Store rooted at baseURL.
func New(baseURL string, opts ...Option) *Store {
	ret := &Store{
		fs:      afs.New(),
		baseURL: baseURL,
		prefix:  defaultPrefix,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (s *Store) objectURL(key string) string {
	return url.Join(s.baseURL, s.prefix, key)
}

// SetMany uploads every entry, overwriting existing objects with the same
// key.
func (s *Store) SetMany(ctx context.Context, entries []Entry) error {
	for _, entry := range entries {
		data, err := json.Marshal(entry.Document)
		if err != nil {
			return fmt.Errorf("failed to marshal document %s: %w", entry.Key, err)
		}
		URL := s.objectURL(entry.Key)
		if err := s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("failed to upload document %s: %w", entry.Key, err)
		}
	}
	s.logger.Debug("stored documents", "count", len(entries))
	return nil
}

// GetMany fetches documents by key, preserving input order. A key with no
// stored object yields a nil element rather than an error.
func (s *Store) GetMany(ctx context.Context, keys []string) ([]*schema.Document, error) {
	ret := make([]*schema.Document, len(keys))
	for i, key := range keys {
		URL := s.objectURL(key)
		exists, err := s.fs.Exists(ctx, URL)
		if err != nil {
			return nil, fmt.Errorf("failed to check document %s: %w", key, err)
		}
		if !exists {
			continue
		}
		data, err := s.fs.DownloadWithURL(ctx, URL)
		if err != nil {
			return nil, fmt.Errorf("failed to download document %s: %w", key, err)
		}
		var document schema.Document
		if err := json.Unmarshal(data, &document); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document %s: %w", key, err)
		}
		ret[i] = &document
	}
	return ret, nil
}

// DeleteMany removes the stored objects for the given keys. An empty key
// set is a no-op.
func (s *Store) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	for _, key := range keys {
		if err := s.fs.Delete(ctx, s.objectURL(key)); err != nil {
			return fmt.Errorf("failed to delete document %s: %w", key, err)
		}
	}
	s.logger.Debug("deleted documents", "count", len(keys))
	return nil
}

// Keys lazily yields every stored document key starting with prefix; an
// empty prefix yields all keys. Iteration stops on the first listing
// error, reported through the second value.
func (s *Store) Keys(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		root := url.Join(s.baseURL, s.prefix)
		exists, err := s.fs.Exists(ctx, root)
		if err != nil {
			yield("", fmt.Errorf("failed to check store %s: %w", root, err))
			return
		}
		if !exists {
			return
		}
		objects, err := s.fs.List(ctx, root)
		if err != nil {
			yield("", fmt.Errorf("failed to list store %s: %w", root, err))
			return
		}
		for _, object := range objects {
			if object.IsDir() || !strings.HasPrefix(object.Name(), prefix) {
				continue
			}
			if !yield(object.Name(), nil) {
				return
			}
		}
	}
}
