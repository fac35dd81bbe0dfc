// Package retriever turns similarity search results into a formatted
// context block for prompt injection, with structured sources for UI
// attribution.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/vectorstore"
)

// smartMinSimilarity is the lowered floor used when the entity types
// are already narrowed by keywords: recall over precision.
const smartMinSimilarity = 0.65

// Options tune a retrieval. Zero values take the store defaults
// (5 results, 0.7 minimum similarity).
type Options struct {
	EntityTypes   []string
	MaxResults    int
	MinSimilarity float64
}

// Source attributes one retrieved snippet.
type Source struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Similarity float64        `json:"similarity"`
}

// Result is the formatted context plus its provenance.
type Result struct {
	Context string   `json:"context"`
	Sources []Source `json:"sources"`
}

type Retriever struct {
	store  vectorstore.Store
	logger *slog.Logger
}

func NewRetriever(store vectorstore.Store, logger *slog.Logger) *Retriever {
	return &Retriever{
		store:  store,
		logger: logger.With("module", "retriever"),
	}
}

// RetrieveContext searches the user's corpus and formats the hits into
// one block of text. Errors are swallowed to an empty result: retrieval
// failure must never break the caller's primary flow.
func (r *Retriever) RetrieveContext(ctx context.Context, userID, query string, opts Options) Result {
	results, err := r.store.SearchSimilar(ctx, userID, query, vectorstore.SearchOptions{
		EntityTypes:   opts.EntityTypes,
		Limit:         opts.MaxResults,
		MinSimilarity: opts.MinSimilarity,
	})
	if err != nil {
		r.logger.Warn("Context retrieval failed, continuing without context",
			"user_id", userID,
			"error", err)

		return Result{}
	}

	if len(results) == 0 {
		return Result{}
	}

	var b strings.Builder

	sources := make([]Source, 0, len(results))

	for i, hit := range results {
		fmt.Fprintf(&b, "[%d] %s %s (similarity %.2f):\n%s\n\n", i+1, hit.EntityType, hit.EntityID, hit.Similarity, hit.Content)

		sources = append(sources, Source{
			Type:       hit.EntityType,
			ID:         hit.EntityID,
			Metadata:   hit.Metadata,
			Similarity: hit.Similarity,
		})
	}

	return Result{
		Context: strings.TrimRight(b.String(), "\n"),
		Sources: sources,
	}
}

// RetrieveSmartContext narrows the searched entity types by scanning
// the query (and optional intent hint) for domain keywords, then
// retrieves with a slightly lower similarity floor. With no keyword
// match it searches all types.
func (r *Retriever) RetrieveSmartContext(ctx context.Context, userID, query, intent string) Result {
	entityTypes := guessEntityTypes(query + " " + intent)

	return r.RetrieveContext(ctx, userID, query, Options{
		EntityTypes:   entityTypes,
		MinSimilarity: smartMinSimilarity,
	})
}

// Dutch and English terms per entity type. Matching is substring-based;
// plural forms that break the stem ("facturen") are listed explicitly.
var entityKeywords = map[string][]string{
	models.EntityClient:       {"client", "klant", "customer", "contact", "opdrachtgever"},
	models.EntityInvoice:      {"invoice", "factuur", "facturen", "betaling", "payment", "bill"},
	models.EntityQuote:        {"quote", "offerte", "quotation", "voorstel", "proposal"},
	models.EntityProject:      {"project", "opdracht", "klus"},
	models.EntityConversation: {"conversation", "gesprek", "bericht", "message", "mail", "whatsapp"},
}

func guessEntityTypes(text string) []string {
	lowered := strings.ToLower(text)

	types := make([]string, 0, len(entityKeywords))

	// Fixed iteration order keeps the narrowed list deterministic.
	for _, entityType := range []string{
		models.EntityClient,
		models.EntityInvoice,
		models.EntityQuote,
		models.EntityProject,
		models.EntityConversation,
	} {
		for _, keyword := range entityKeywords[entityType] {
			if strings.Contains(lowered, keyword) {
				types = append(types, entityType)

				break
			}
		}
	}

	if len(types) == 0 {
		return nil
	}

	return types
}
