package retrieval

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/sensihi/copilot/internal/model/copilot"
	"github.com/sensihi/copilot/internal/service/retrieval/vectorstore"
	"github.com/sensihi/copilot/internal/service/session"
)

// Config tunes the retrieval stage.
type Config struct {
	// MinQueryLength gates retrieval: shorter messages are treated as
	// low-signal follow-ups.
	MinQueryLength int
	// MatchThreshold is the similarity floor passed to the vector store.
	MatchThreshold float32
	// MatchCount caps results per search.
	MatchCount int
	// UpstreamTimeout bounds each embed/search call.
	UpstreamTimeout time.Duration
	// CacheCapacity bounds the embedding cache.
	CacheCapacity int
}

// DefaultConfig mirrors the production retrieval constants.
func DefaultConfig() Config {
	return Config{
		MinQueryLength:  15,
		MatchThreshold:  0.75,
		MatchCount:      5,
		UpstreamTimeout: 10 * time.Second,
		CacheCapacity:   defaultCacheCapacity,
	}
}

// Resolver produces grounding text through a strict fallback chain:
// reuse the session's last context, run live retrieval, fall back to
// canned content, and finally to a fixed default. It always returns
// non-empty context; upstream failures only advance the chain.
type Resolver struct {
	sessions session.Store
	embedder Embedder
	search   vectorstore.Store
	cache    *embeddingCache
	cfg      Config
}

// NewResolver wires the resolver. embedder and search may be nil when
// the provider or document store is unconfigured; retrieval then always
// falls through to static content.
func NewResolver(sessions session.Store, embedder Embedder, search vectorstore.Store, cfg Config) *Resolver {
	defaults := DefaultConfig()
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = defaults.MinQueryLength
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = defaults.MatchThreshold
	}
	if cfg.MatchCount <= 0 {
		cfg.MatchCount = defaults.MatchCount
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = defaults.UpstreamTimeout
	}

	return &Resolver{
		sessions: sessions,
		embedder: embedder,
		search:   search,
		cache:    newEmbeddingCache(cfg.CacheCapacity),
		cfg:      cfg,
	}
}

// Resolve returns grounding text plus any references backing it.
// references may be empty even when context is non-empty; fallback
// states never produce references.
func (r *Resolver) Resolve(ctx context.Context, message, sessionID string) (string, []copilot.Reference) {
	// REUSE: a previously resolved context serves follow-up turns.
	lastContext, err := r.sessions.LastContext(ctx, sessionID)
	if err != nil {
		log.Printf("[retrieval] last context read failed: %v", err)
	}
	if lastContext != "" {
		return lastContext, []copilot.Reference{}
	}

	// RETRIEVE: only for fresh, sufficiently specific questions.
	if r.shouldSearch(ctx, message, sessionID) {
		if contextText, refs := r.retrieve(ctx, message); contextText != "" {
			if err := r.sessions.SetLastContext(ctx, sessionID, contextText); err != nil {
				log.Printf("[retrieval] last context write failed: %v", err)
			}
			return contextText, refs
		}
	}

	// STATIC_FALLBACK: canned paragraphs, no network.
	if paragraphs := fallbackContent(message); len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n"), []copilot.Reference{}
	}

	// HARDCODED_DEFAULT: unreachable in practice, kept as the guarantee.
	return defaultContext, []copilot.Reference{}
}

// shouldSearch implements the follow-up heuristic: short messages and
// sessions with prior turns skip live retrieval.
func (r *Resolver) shouldSearch(ctx context.Context, message, sessionID string) bool {
	if r.embedder == nil || r.search == nil {
		return false
	}
	if len(message) < r.cfg.MinQueryLength {
		return false
	}

	messages, err := r.sessions.Messages(ctx, sessionID)
	if err != nil {
		log.Printf("[retrieval] session read failed: %v", err)
		return false
	}
	return len(messages) == 0
}

// retrieve embeds the message and queries the vector store. Any failure
// is logged and reported as "no result".
func (r *Resolver) retrieve(ctx context.Context, message string) (string, []copilot.Reference) {
	vector, err := r.embed(ctx, message)
	if err != nil {
		log.Printf("[retrieval] embedding failed: %v", err)
		return "", nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, r.cfg.UpstreamTimeout)
	defer cancel()

	results, err := r.search.Search(searchCtx, vector, vectorstore.SearchFilter{
		MinScore: r.cfg.MatchThreshold,
	}, r.cfg.MatchCount)
	if err != nil {
		log.Printf("[retrieval] vector search failed: %v", err)
		return "", nil
	}
	if len(results) == 0 {
		return "", nil
	}

	// Concatenation follows the upstream relevance ranking.
	parts := make([]string, 0, len(results))
	for _, result := range results {
		if result.Content != "" {
			parts = append(parts, result.Content)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}

	return strings.Join(parts, "\n"), extractReferences(results)
}

func (r *Resolver) embed(ctx context.Context, query string) ([]float32, error) {
	if vector, ok := r.cache.get(query); ok {
		return vector, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, r.cfg.UpstreamTimeout)
	defer cancel()

	vector, err := r.embedder.EmbedQuery(embedCtx, query)
	if err != nil {
		return nil, err
	}

	r.cache.put(query, vector)
	return vector, nil
}
