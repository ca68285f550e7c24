package oracle

import (
	"context"
	"fmt"

	"github.com/agent-smit/passguard/internal/breach"
	"github.com/agent-smit/passguard/internal/config"
)

// BatchEmbedder is an embedder that can also embed many texts per call, used
// when building corpus embeddings.
type BatchEmbedder interface {
	breach.Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// NewFromConfig builds the embedding provider selected by cfg. The result is
// unguarded and uncached; the server wraps it with a Guard and a CachedEmbedder.
func NewFromConfig(ctx context.Context, cfg *config.Config) (BatchEmbedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderNGram:
		return NewNGramEmbedder(cfg.EmbeddingDimensions, DefaultMinN, DefaultMaxN)
	case config.ProviderOpenAI:
		return NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     cfg.EmbeddingAPIKey,
			BaseURL:    cfg.EmbeddingBaseURL,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.EmbeddingDimensions,
		})
	case config.ProviderHTTP:
		return NewHTTPEmbedder(ctx, HTTPConfig{
			BaseURL:      cfg.EmbeddingBaseURL,
			Dimensions:   cfg.EmbeddingDimensions,
			Timeout:      cfg.OracleTimeout,
			TokenURL:     cfg.EmbeddingTokenURL,
			ClientID:     cfg.EmbeddingClientID,
			ClientSecret: cfg.EmbeddingClientSecret,
		})
	}
	return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
}
