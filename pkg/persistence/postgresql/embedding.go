package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/zzpkit/zzpkit/pkg/models"
)

type EmbeddingRepository struct {
	db *sql.DB
}

func (r *EmbeddingRepository) Upsert(ctx context.Context, embedding *models.VectorEmbedding) error {
	if embedding.ID == "" {
		embedding.ID = uuid.New().String()
	}

	vector, err := json.Marshal(embedding.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding vector: %w", err)
	}

	metadata, err := json.Marshal(embedding.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO vector_embeddings
			(id, user_id, entity_type, entity_id, chunk_index, content, embedding, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, entity_type, entity_id, chunk_index) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`,
		embedding.ID,
		embedding.UserID,
		embedding.EntityType,
		embedding.EntityID,
		embedding.ChunkIndex,
		embedding.Content,
		vector,
		metadata,
		embedding.CreatedAt,
		embedding.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding for %s %s: %w", embedding.EntityType, embedding.EntityID, err)
	}

	return nil
}

func (r *EmbeddingRepository) ListByUser(ctx context.Context, userID string, entityTypes []string) ([]*models.VectorEmbedding, error) {
	query := `
		SELECT id, user_id, entity_type, entity_id, chunk_index, content, embedding, metadata, created_at, updated_at
		FROM vector_embeddings
		WHERE user_id = $1`
	args := []any{userID}

	if len(entityTypes) > 0 {
		query += ` AND entity_type = ANY($2)`
		args = append(args, pq.Array(entityTypes))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}

	defer func() { _ = rows.Close() }()

	embeddings := make([]*models.VectorEmbedding, 0)

	for rows.Next() {
		var (
			e        models.VectorEmbedding
			vector   []byte
			metadata []byte
		)

		err := rows.Scan(&e.ID, &e.UserID, &e.EntityType, &e.EntityID, &e.ChunkIndex,
			&e.Content, &vector, &metadata, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}

		if err := json.Unmarshal(vector, &e.Embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding vector: %w", err)
		}

		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal embedding metadata: %w", err)
			}
		}

		embeddings = append(embeddings, &e)
	}

	return embeddings, rows.Err()
}

func (r *EmbeddingRepository) DeleteEntity(ctx context.Context, userID, entityType, entityID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM vector_embeddings WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3`,
		userID, entityType, entityID)
	if err != nil {
		return fmt.Errorf("failed to delete embeddings for %s %s: %w", entityType, entityID, err)
	}

	return nil
}
