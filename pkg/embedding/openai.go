package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	defaultModel = "text-embedding-3-small"

	// Upstream batch ceiling; larger inputs are chunked.
	maxBatchSize = 100

	// Small pause between chunks to stay under rate limits.
	interBatchDelay = 200 * time.Millisecond
)

// OpenAIConfig configures the OpenAI-compatible embedding provider. An
// empty BaseURL targets the OpenAI API itself; set it to point at any
// compatible server.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIProvider implements Provider over an OpenAI-compatible
// embeddings API via langchaingo.
type OpenAIProvider struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

func NewOpenAIProvider(config OpenAIConfig, logger *slog.Logger) (*OpenAIProvider, error) {
	model := config.Model
	if model == "" {
		model = defaultModel
	}

	opts := []openai.Option{
		openai.WithToken(config.APIKey),
		openai.WithModel(model),
		openai.WithEmbeddingModel(model),
	}

	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &OpenAIProvider{
		embedder: embedder,
		logger:   logger.With("module", "embedding"),
	}, nil
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	vector, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}

	return vector, nil
}

// EmbedBatch embeds texts in chunks of at most 100. The result is
// aligned with the input; texts in a failed chunk get nil vectors and
// the remaining chunks still run.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyText
	}

	results := make([][]float32, len(texts))

	for start := 0; start < len(texts); start += maxBatchSize {
		end := min(start+maxBatchSize, len(texts))

		vectors, err := p.embedder.EmbedDocuments(ctx, texts[start:end])
		if err != nil {
			p.logger.Warn("Embedding batch failed, skipping",
				"from", start,
				"to", end,
				"error", err)
		} else {
			copy(results[start:end], vectors)
		}

		if end < len(texts) {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(interBatchDelay):
			}
		}
	}

	return results, nil
}
