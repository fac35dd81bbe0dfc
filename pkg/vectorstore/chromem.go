package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/zzpkit/zzpkit/pkg/embedding"
)

// ChromemStore implements Store on the embedded chromem-go database.
// Used in local development where no SQL database is available; one
// collection per user keeps tenants physically separated.
type ChromemStore struct {
	db       *chromem.DB
	provider embedding.Provider
	logger   *slog.Logger
}

func NewChromemStore(path string, provider embedding.Provider, logger *slog.Logger) (*ChromemStore, error) {
	var (
		db  *chromem.DB
		err error
	)

	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem database: %w", err)
		}
	}

	return &ChromemStore{
		db:       db,
		provider: provider,
		logger:   logger.With("module", "vectorstore.chromem"),
	}, nil
}

func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.provider.Embed(ctx, text)
	}
}

func (s *ChromemStore) collection(userID string) (*chromem.Collection, error) {
	return s.db.GetOrCreateCollection("user_"+userID, nil, s.embeddingFunc())
}

func documentID(entityType, entityID string, chunkIndex int) string {
	return entityType + "_" + entityID + "_" + strconv.Itoa(chunkIndex)
}

func (s *ChromemStore) Upsert(ctx context.Context, userID string, doc Document, chunkIndex int) error {
	if strings.TrimSpace(doc.Content) == "" {
		return embedding.ErrEmptyText
	}

	collection, err := s.collection(userID)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}

	metadata := map[string]string{
		"entity_type": doc.EntityType,
		"entity_id":   doc.EntityID,
	}

	for key, value := range doc.Metadata {
		metadata[key] = fmt.Sprint(value)
	}

	// AddDocument overwrites an existing document with the same ID, so
	// re-indexing stays an upsert here too.
	err = collection.AddDocument(ctx, chromem.Document{
		ID:       documentID(doc.EntityType, doc.EntityID, chunkIndex),
		Content:  doc.Content,
		Metadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	return nil
}

func (s *ChromemStore) SearchSimilar(ctx context.Context, userID, query string, opts SearchOptions) ([]SearchResult, error) {
	opts = opts.withDefaults()

	collection, err := s.collection(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	entityTypes := opts.EntityTypes
	if len(entityTypes) == 0 {
		entityTypes = []string{""}
	}

	results := make([]SearchResult, 0)

	for _, entityType := range entityTypes {
		var where map[string]string
		if entityType != "" {
			where = map[string]string{"entity_type": entityType}
		}

		count := collection.Count()
		if count == 0 {
			continue
		}

		// chromem caps nResults at the collection size.
		hits, err := collection.Query(ctx, query, min(opts.Limit, count), where, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to query collection: %w", err)
		}

		for _, hit := range hits {
			if float64(hit.Similarity) < opts.MinSimilarity {
				continue
			}

			metadata := make(map[string]any, len(hit.Metadata))
			for key, value := range hit.Metadata {
				metadata[key] = value
			}

			results = append(results, SearchResult{
				EntityType: hit.Metadata["entity_type"],
				EntityID:   hit.Metadata["entity_id"],
				Content:    hit.Content,
				Metadata:   metadata,
				Similarity: float64(hit.Similarity),
			})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })

	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	return results, nil
}

func (s *ChromemStore) DeleteEntity(ctx context.Context, userID, entityType, entityID string) error {
	collection, err := s.collection(userID)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}

	where := map[string]string{
		"entity_type": entityType,
		"entity_id":   entityID,
	}

	if err := collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	return nil
}
