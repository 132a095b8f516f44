package qdrant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"
)

// ManagerOption customizes a Manager.
type ManagerOption func(m *Manager)

// WithManagerLogger overrides the manager logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// Manager administers Qdrant collections. Every collection it creates uses
// cosine distance.
type Manager struct {
	client *qdrant.Client
	logger *slog.Logger
}

// NewManager creates a Manager on an established client.
func NewManager(client *qdrant.Client, opts ...ManagerOption) *Manager {
	ret := &Manager{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Exists reports whether the named collection is present.
func (m *Manager) Exists(ctx context.Context, name string) (bool, error) {
	exists, err := m.client.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	return exists, nil
}

// Create provisions a cosine-distance collection with the given vector
// dimensionality.
func (m *Manager) Create(ctx context.Context, name string, dimensions uint64) error {
	err := m.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimensions,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	m.logger.Info("created collection", "name", name, "dimensions", dimensions)
	return nil
}

// Drop removes the named collection and everything in it.
func (m *Manager) Drop(ctx context.Context, name string) error {
	if err := m.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", name, err)
	}
	m.logger.Info("dropped collection", "name", name)
	return nil
}

// List returns the names of all collections.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	names, err := m.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}
