package models

import "time"

// Entity types that can be indexed into the vector store.
const (
	EntityClient       = "client"
	EntityInvoice      = "invoice"
	EntityQuote        = "quote"
	EntityProject      = "project"
	EntityConversation = "conversation"
)

// VectorEmbedding is one indexed chunk of a business entity. At most one
// row may exist per (user, entity type, entity id, chunk index);
// re-indexing upserts on that tuple.
type VectorEmbedding struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"     validate:"required"`
	EntityType string         `json:"entity_type" validate:"required"`
	EntityID   string         `json:"entity_id"   validate:"required"`
	ChunkIndex int            `json:"chunk_index"`
	Content    string         `json:"content"`
	Embedding  []float32      `json:"embedding"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
