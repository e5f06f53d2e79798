package retrieval

import (
	"context"
	"fmt"
	"sync"

	openaiembed "github.com/cloudwego/eino-ext/components/embedding/openai"
)

// Embedder turns a query into a fixed-dimension vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// OpenAIEmbedderConfig configures the provider-backed embedder.
type OpenAIEmbedderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// openAIEmbedder adapts the eino embedding component to the resolver's
// single-query contract.
type openAIEmbedder struct {
	embedder *openaiembed.Embedder
}

// NewOpenAIEmbedder creates an Embedder backed by the provider's
// embedding endpoint.
func NewOpenAIEmbedder(ctx context.Context, cfg OpenAIEmbedderConfig) (Embedder, error) {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}

	embedder, err := openaiembed.NewEmbedder(ctx, &openaiembed.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &openAIEmbedder{embedder: embedder}, nil
}

func (e *openAIEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedding response was empty")
	}

	vector := make([]float32, len(vectors[0]))
	for i, v := range vectors[0] {
		vector[i] = float32(v)
	}
	return vector, nil
}

const defaultCacheCapacity = 256

// embeddingCache memoizes query vectors, evicting the oldest insertion
// once the capacity is exceeded. Keyed by the raw query string.
type embeddingCache struct {
	mu       sync.Mutex
	entries  map[string][]float32
	order    []string
	capacity int
}

func newEmbeddingCache(capacity int) *embeddingCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &embeddingCache{
		entries:  make(map[string][]float32),
		capacity: capacity,
	}
}

func (c *embeddingCache) get(query string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vector, ok := c.entries[query]
	return vector, ok
}

func (c *embeddingCache) put(query string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[query]; ok {
		return
	}

	c.entries[query] = vector
	c.order = append(c.order, query)
	if len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}
