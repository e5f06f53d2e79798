package vectorstore

import "context"

// Store is a backend-agnostic interface for vector similarity search over
// the crawled site content. The corpus itself is populated offline.
type Store interface {
	// Search returns ranked matches for the query vector, best first.
	// Implementations apply the MinScore threshold before returning.
	Search(ctx context.Context, vector []float32, filter SearchFilter, limit int) ([]SearchResult, error)

	// Close releases any resources held by the store.
	Close() error
}

// SearchFilter defines filtering options for vector search.
type SearchFilter struct {
	// MinScore filters results below this similarity threshold (0.0-1.0).
	MinScore float32
}

// SearchResult is a single ranked content match.
type SearchResult struct {
	ID         string
	Score      float32
	Content    string
	URL        string
	Title      string
	SourceType string
}
