package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/zzpkit/zzpkit/pkg/embedding"
	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
)

// EmbeddingStore implements Store on an embedding repository, computing
// similarity by brute-force cosine over the user's corpus. O(n) per
// query, which is fine for single-tenant corpora of hundreds of
// documents; swap in an ANN index behind the Store interface if that
// assumption breaks.
type EmbeddingStore struct {
	repo     persistence.EmbeddingRepository
	provider embedding.Provider
	logger   *slog.Logger
}

func NewEmbeddingStore(repo persistence.EmbeddingRepository, provider embedding.Provider, logger *slog.Logger) *EmbeddingStore {
	return &EmbeddingStore{
		repo:     repo,
		provider: provider,
		logger:   logger.With("module", "vectorstore"),
	}
}

func (s *EmbeddingStore) Upsert(ctx context.Context, userID string, doc Document, chunkIndex int) error {
	if strings.TrimSpace(doc.Content) == "" {
		return embedding.ErrEmptyText
	}

	vector, err := s.provider.Embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("failed to embed %s %s: %w", doc.EntityType, doc.EntityID, err)
	}

	now := time.Now().UTC()

	return s.repo.Upsert(ctx, &models.VectorEmbedding{
		UserID:     userID,
		EntityType: doc.EntityType,
		EntityID:   doc.EntityID,
		ChunkIndex: chunkIndex,
		Content:    doc.Content,
		Embedding:  vector,
		Metadata:   doc.Metadata,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (s *EmbeddingStore) SearchSimilar(ctx context.Context, userID, query string, opts SearchOptions) ([]SearchResult, error) {
	opts = opts.withDefaults()

	queryVector, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	candidates, err := s.repo.ListByUser(ctx, userID, opts.EntityTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}

	results := make([]SearchResult, 0, len(candidates))

	for _, candidate := range candidates {
		similarity, err := embedding.CosineSimilarity(queryVector, candidate.Embedding)
		if err != nil {
			// Stale rows from an older embedding model; skip, do not fail
			// the whole query.
			s.logger.Warn("Skipping embedding with mismatched dimensions",
				"entity_type", candidate.EntityType,
				"entity_id", candidate.EntityID,
				"error", err)

			continue
		}

		if similarity < opts.MinSimilarity {
			continue
		}

		results = append(results, SearchResult{
			EntityType: candidate.EntityType,
			EntityID:   candidate.EntityID,
			Content:    candidate.Content,
			Metadata:   candidate.Metadata,
			Similarity: similarity,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })

	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	return results, nil
}

func (s *EmbeddingStore) DeleteEntity(ctx context.Context, userID, entityType, entityID string) error {
	return s.repo.DeleteEntity(ctx, userID, entityType, entityID)
}
