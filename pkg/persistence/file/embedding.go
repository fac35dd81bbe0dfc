package file

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/zzpkit/zzpkit/pkg/models"
)

// EmbeddingRepository stores vector embeddings keyed on the composite
// (user, entity type, entity id, chunk index) tuple, so re-indexing the
// same chunk overwrites the previous file.
type EmbeddingRepository struct {
	records *collection[models.VectorEmbedding]
}

func embeddingKey(userID, entityType, entityID string, chunkIndex int) string {
	return fmt.Sprintf("%s_%s_%s_%d", userID, entityType, entityID, chunkIndex)
}

func (r *EmbeddingRepository) Upsert(_ context.Context, embedding *models.VectorEmbedding) error {
	key := embeddingKey(embedding.UserID, embedding.EntityType, embedding.EntityID, embedding.ChunkIndex)

	existing, err := r.records.get(key)
	if err != nil {
		return err
	}

	if existing != nil {
		embedding.ID = existing.ID
		embedding.CreatedAt = existing.CreatedAt
	}

	return r.records.save(key, embedding)
}

func (r *EmbeddingRepository) ListByUser(_ context.Context, userID string, entityTypes []string) ([]*models.VectorEmbedding, error) {
	all, err := r.records.list()
	if err != nil {
		return nil, err
	}

	matches := make([]*models.VectorEmbedding, 0)

	for _, e := range all {
		if e.UserID != userID {
			continue
		}

		if len(entityTypes) > 0 && !slices.Contains(entityTypes, e.EntityType) {
			continue
		}

		matches = append(matches, e)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	return matches, nil
}

func (r *EmbeddingRepository) DeleteEntity(_ context.Context, userID, entityType, entityID string) error {
	all, err := r.records.list()
	if err != nil {
		return err
	}

	for _, e := range all {
		if e.UserID == userID && e.EntityType == entityType && e.EntityID == entityID {
			if err := r.records.delete(embeddingKey(userID, entityType, entityID, e.ChunkIndex)); err != nil {
				return err
			}
		}
	}

	return nil
}
