package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/supabase-go"

	"github.com/sensihi/copilot/internal/service/retrieval/vectorstore"
)

// Config holds Supabase connection configuration.
type Config struct {
	URL        string
	ServiceKey string
	// RPCName is the Postgres function performing the similarity match.
	RPCName string
}

const defaultRPCName = "match_sensihi_documents"

// Client implements vectorstore.Store against the Supabase pgvector RPC
// that the site crawler seeds.
type Client struct {
	client  *supabase.Client
	rpcName string
}

// New creates a Supabase-backed vector store.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("supabase service key is required")
	}
	if cfg.RPCName == "" {
		cfg.RPCName = defaultRPCName
	}

	client, err := supabase.NewClient(cfg.URL, cfg.ServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{client: client, rpcName: cfg.RPCName}, nil
}

// matchRow mirrors the RPC's row shape.
type matchRow struct {
	ID         string          `json:"id"`
	Content    string          `json:"content"`
	Metadata   json.RawMessage `json:"metadata"`
	Similarity float32         `json:"similarity"`
}

type matchMetadata struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Search implements vectorstore.Store.
func (c *Client) Search(_ context.Context, vector []float32, filter vectorstore.SearchFilter, limit int) ([]vectorstore.SearchResult, error) {
	params := map[string]any{
		"query_embedding": vector,
		"match_threshold": filter.MinScore,
		"match_count":     limit,
	}

	raw := c.client.Rpc(c.rpcName, "", params)
	if raw == "" {
		return nil, fmt.Errorf("supabase rpc %s returned no data", c.rpcName)
	}

	var rows []matchRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", c.rpcName, err)
	}

	results := make([]vectorstore.SearchResult, 0, len(rows))
	for _, row := range rows {
		if filter.MinScore > 0 && row.Similarity < filter.MinScore {
			continue
		}

		var meta matchMetadata
		if len(row.Metadata) > 0 {
			// Metadata is best-effort; a malformed blob still yields content.
			_ = json.Unmarshal(row.Metadata, &meta)
		}

		results = append(results, vectorstore.SearchResult{
			ID:         row.ID,
			Score:      row.Similarity,
			Content:    row.Content,
			URL:        meta.URL,
			Title:      meta.Title,
			SourceType: meta.Type,
		})
	}

	return results, nil
}

// Close implements vectorstore.Store. The supabase client holds no
// long-lived connections.
func (c *Client) Close() error {
	return nil
}
