package sources

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-swr/pkg/swr"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreSourceConfig holds configuration for the Firestore source.
type FirestoreSourceConfig struct {
	CollectionName string
}

// FirestoreSource is a fetcher backed by a Firestore collection, one
// document per key. The client's lifecycle is managed by the caller.
type FirestoreSource[V any] struct {
	client         *firestore.Client
	collectionName string
	logger         zerolog.Logger
}

// NewFirestoreSource creates a new FirestoreSource over an existing client.
func NewFirestoreSource[V any](cfg *FirestoreSourceConfig, client *firestore.Client, logger zerolog.Logger) (*FirestoreSource[V], error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client cannot be nil")
	}
	if cfg == nil || cfg.CollectionName == "" {
		return nil, fmt.Errorf("collection name cannot be empty")
	}
	return &FirestoreSource[V]{
		client:         client,
		collectionName: cfg.CollectionName,
		logger:         logger.With().Str("component", "FirestoreSource").Str("collection", cfg.CollectionName).Logger(),
	}, nil
}

// Fetch retrieves the document for a key and maps it into V.
func (s *FirestoreSource[V]) Fetch(ctx context.Context, key string) (V, error) {
	var zero V

	snap, err := s.client.Collection(s.collectionName).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return zero, fmt.Errorf("document '%s' not found: %w", key, err)
		}
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to get document from Firestore.")
		return zero, fmt.Errorf("firestore get for %s: %w", key, err)
	}

	var value V
	if err := snap.DataTo(&value); err != nil {
		return zero, fmt.Errorf("firestore DataTo for %s: %w", key, err)
	}
	return value, nil
}

// Write stores a value as the document for a key. Useful for tests and for
// seeding the source of truth.
func (s *FirestoreSource[V]) Write(ctx context.Context, key string, value V) error {
	if _, err := s.client.Collection(s.collectionName).Doc(key).Set(ctx, value); err != nil {
		return fmt.Errorf("firestore set for %s: %w", key, err)
	}
	return nil
}

// Fetcher adapts the source to the swr.Fetcher function type.
func (s *FirestoreSource[V]) Fetcher() swr.Fetcher[V] {
	return s.Fetch
}

// Close is a no-op; the injected Firestore client is owned by the caller.
func (s *FirestoreSource[V]) Close() error {
	return nil
}
