// Package vectorstore persists per-user embeddings of business entities
// and answers nearest-neighbor queries for the retrieval layer.
package vectorstore

import "context"

// Document is the text rendering of a business entity to be indexed.
type Document struct {
	EntityType string
	EntityID   string
	Content    string
	Metadata   map[string]any
}

// SearchOptions tune a similarity query. Zero values take the defaults.
type SearchOptions struct {
	EntityTypes   []string
	Limit         int
	MinSimilarity float64
}

const (
	DefaultLimit         = 5
	DefaultMinSimilarity = 0.7
)

func (o SearchOptions) withDefaults() SearchOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}

	if o.MinSimilarity == 0 {
		o.MinSimilarity = DefaultMinSimilarity
	}

	return o
}

// SearchResult is one similarity hit, ordered descending by Similarity.
type SearchResult struct {
	EntityType string
	EntityID   string
	Content    string
	Metadata   map[string]any
	Similarity float64
}

// Store persists and searches embeddings. Implementations must upsert
// on (user, entity type, entity id, chunk index) so re-indexing never
// accumulates duplicates, and must keep all data scoped to the user.
type Store interface {
	Upsert(ctx context.Context, userID string, doc Document, chunkIndex int) error
	SearchSimilar(ctx context.Context, userID, query string, opts SearchOptions) ([]SearchResult, error)
	DeleteEntity(ctx context.Context, userID, entityType, entityID string) error
}
