package retrieval

import (
	"strings"

	"github.com/sensihi/copilot/internal/model/copilot"
	"github.com/sensihi/copilot/internal/service/retrieval/vectorstore"
)

const (
	siteOrigin    = "https://sensihi.com"
	maxReferences = 5
)

// allowedPathPrefixes limits references to content pages; navigational
// and boilerplate paths are rejected outright.
var allowedPathPrefixes = []string{
	"/insights",
	"/solutions",
	"/case-studies",
	"/blog",
}

var deniedPathPrefixes = []string{
	"/contact",
	"/careers",
	"/privacy",
	"/terms",
	"/cookies",
}

// normalizeURL resolves a metadata URL against the site origin. Absolute
// URLs outside the origin and unrecognized shapes are discarded.
func normalizeURL(raw string) string {
	if raw == "" {
		return ""
	}

	if strings.HasPrefix(raw, "http") {
		if strings.HasPrefix(raw, siteOrigin) {
			return raw
		}
		return ""
	}

	if strings.HasPrefix(raw, "/") {
		return siteOrigin + raw
	}

	return ""
}

func pathAllowed(normalized string) bool {
	path := strings.TrimPrefix(normalized, siteOrigin)
	if path == "" {
		path = "/"
	}

	for _, prefix := range deniedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	for _, prefix := range allowedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractReferences maps retrieval results to deduplicated, filtered,
// capped references in upstream rank order.
func extractReferences(results []vectorstore.SearchResult) []copilot.Reference {
	seen := make(map[string]struct{})
	refs := []copilot.Reference{}

	for _, result := range results {
		normalized := normalizeURL(result.URL)
		if normalized == "" || !pathAllowed(normalized) {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}

		title := result.Title
		if title == "" {
			title = "Related Sensihi insight"
		}

		refs = append(refs, copilot.Reference{Title: title, URL: normalized})
		if len(refs) == maxReferences {
			break
		}
	}

	return refs
}
