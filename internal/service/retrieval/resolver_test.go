package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sensihi/copilot/internal/service/retrieval/vectorstore"
	"github.com/sensihi/copilot/internal/service/session"
)

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeSearch struct {
	calls   int
	results []vectorstore.SearchResult
	err     error
}

func (f *fakeSearch) Search(_ context.Context, _ []float32, _ vectorstore.SearchFilter, _ int) ([]vectorstore.SearchResult, error) {
	f.calls++
	return f.results, f.err
}

func (f *fakeSearch) Close() error { return nil }

func newTestSessions(t *testing.T) session.Store {
	t.Helper()
	store, err := session.NewStore(session.StoreTypeMemory)
	if err != nil {
		t.Fatalf("NewStore err: %v", err)
	}
	return store
}

func TestResolveRetrievesAndStoresContext(t *testing.T) {
	sessions := newTestSessions(t)
	search := &fakeSearch{results: []vectorstore.SearchResult{
		{Content: "first chunk", URL: "/insights/ai-adoption", Title: "AI adoption"},
		{Content: "second chunk", URL: "/solutions", Title: "Solutions"},
	}}
	r := NewResolver(sessions, &fakeEmbedder{}, search, Config{})
	ctx := context.Background()

	contextText, refs := r.Resolve(ctx, "How does Sensihi approach AI adoption?", "s1")
	if contextText != "first chunk\nsecond chunk" {
		t.Fatalf("unexpected context: %q", contextText)
	}
	if len(refs) != 2 {
		t.Fatalf("unexpected references: %v", refs)
	}

	stored, _ := sessions.LastContext(ctx, "s1")
	if stored != contextText {
		t.Fatalf("resolved context not written back: %q", stored)
	}
}

func TestResolveReusesLastContext(t *testing.T) {
	sessions := newTestSessions(t)
	embedder := &fakeEmbedder{}
	search := &fakeSearch{results: []vectorstore.SearchResult{{Content: "chunk"}}}
	r := NewResolver(sessions, embedder, search, Config{})
	ctx := context.Background()

	first, _ := r.Resolve(ctx, "How does Sensihi approach AI adoption?", "s1")
	_ = sessions.Append(ctx, "s1", "How does Sensihi approach AI adoption?")

	// Short low-signal follow-up must reuse without another search.
	second, refs := r.Resolve(ctx, "tell me more", "s1")
	if second != first {
		t.Fatalf("expected reused context, got %q", second)
	}
	if len(refs) != 0 {
		t.Fatalf("reuse must not produce references, got %v", refs)
	}
	if search.calls != 1 {
		t.Fatalf("expected a single search call, got %d", search.calls)
	}
	if embedder.calls != 1 {
		t.Fatalf("expected a single embedding call, got %d", embedder.calls)
	}
}

func TestResolveShortMessageSkipsRetrieval(t *testing.T) {
	sessions := newTestSessions(t)
	search := &fakeSearch{results: []vectorstore.SearchResult{{Content: "chunk"}}}
	r := NewResolver(sessions, &fakeEmbedder{}, search, Config{})

	contextText, refs := r.Resolve(context.Background(), "hi sensihi", "s1")
	if search.calls != 0 {
		t.Fatal("short message must not trigger retrieval")
	}
	if contextText == "" {
		t.Fatal("resolver must always return non-empty context")
	}
	if len(refs) != 0 {
		t.Fatalf("fallback must not produce references, got %v", refs)
	}
}

func TestResolvePriorTurnsSkipRetrieval(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()
	_ = sessions.Append(ctx, "s1", "earlier question")

	search := &fakeSearch{results: []vectorstore.SearchResult{{Content: "chunk"}}}
	r := NewResolver(sessions, &fakeEmbedder{}, search, Config{})

	contextText, _ := r.Resolve(ctx, "a long enough follow-up question", "s1")
	if search.calls != 0 {
		t.Fatal("sessions with prior turns must not trigger retrieval")
	}
	if contextText == "" {
		t.Fatal("resolver must always return non-empty context")
	}
}

func TestResolveEmbeddingFailureFallsBack(t *testing.T) {
	sessions := newTestSessions(t)
	embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
	search := &fakeSearch{}
	r := NewResolver(sessions, embedder, search, Config{})

	contextText, refs := r.Resolve(context.Background(), "What does Sensihi offer enterprises?", "s1")
	if contextText == "" {
		t.Fatal("embedding failure must still yield context")
	}
	if !strings.Contains(strings.ToLower(contextText), "sensihi") {
		t.Fatalf("expected keyword fallback content, got %q", contextText)
	}
	if len(refs) != 0 {
		t.Fatalf("fallback must not produce references, got %v", refs)
	}
	if search.calls != 0 {
		t.Fatal("search must not run when embedding fails")
	}
}

func TestResolveSearchFailureFallsBack(t *testing.T) {
	sessions := newTestSessions(t)
	search := &fakeSearch{err: errors.New("backend down")}
	r := NewResolver(sessions, &fakeEmbedder{}, search, Config{})

	contextText, _ := r.Resolve(context.Background(), "What does Sensihi offer enterprises?", "s1")
	if contextText == "" {
		t.Fatal("search failure must still yield context")
	}

	stored, _ := sessions.LastContext(context.Background(), "s1")
	if stored != "" {
		t.Fatalf("fallback content must not be written back, got %q", stored)
	}
}

func TestResolveWithoutBackendsUsesFallback(t *testing.T) {
	sessions := newTestSessions(t)
	r := NewResolver(sessions, nil, nil, Config{})

	contextText, _ := r.Resolve(context.Background(), "What is prototyping at Sensihi?", "s1")
	if !strings.Contains(contextText, "Prototyping") {
		t.Fatalf("expected prototyping fallback, got %q", contextText)
	}
}

func TestEmbeddingCacheAvoidsRepeatCalls(t *testing.T) {
	sessions := newTestSessions(t)
	embedder := &fakeEmbedder{}
	search := &fakeSearch{err: errors.New("down")}
	r := NewResolver(sessions, embedder, search, Config{})
	ctx := context.Background()

	const msg = "What does Sensihi offer enterprises?"
	r.Resolve(ctx, msg, "s1")
	r.Resolve(ctx, msg, "s2")

	if embedder.calls != 1 {
		t.Fatalf("expected cached embedding on second call, got %d calls", embedder.calls)
	}
}

func TestEmbeddingCacheEvictsOldest(t *testing.T) {
	cache := newEmbeddingCache(2)
	cache.put("a", []float32{1})
	cache.put("b", []float32{2})
	cache.put("c", []float32{3})

	if _, ok := cache.get("a"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	if _, ok := cache.get("b"); !ok {
		t.Fatal("entry b should survive")
	}
	if _, ok := cache.get("c"); !ok {
		t.Fatal("entry c should survive")
	}
}

func TestExtractReferencesFiltersAndDedupes(t *testing.T) {
	results := []vectorstore.SearchResult{
		{URL: "/insights/one", Title: "One"},
		{URL: "/insights/one", Title: "Duplicate"},
		{URL: "/contact", Title: "Contact"},
		{URL: "https://elsewhere.com/post", Title: "Offsite"},
		{URL: "/solutions/ai", Title: ""},
		{URL: "/random-page", Title: "Nav"},
	}

	refs := extractReferences(results)
	if len(refs) != 2 {
		t.Fatalf("unexpected reference count: got %d want 2 (%v)", len(refs), refs)
	}
	if refs[0].URL != "https://sensihi.com/insights/one" {
		t.Fatalf("unexpected first reference: %+v", refs[0])
	}
	if refs[1].Title != "Related Sensihi insight" {
		t.Fatalf("missing titles should use the default, got %q", refs[1].Title)
	}
}

func TestExtractReferencesCaps(t *testing.T) {
	results := make([]vectorstore.SearchResult, 0, 8)
	for _, path := range []string{"/insights/a", "/insights/b", "/insights/c", "/insights/d", "/insights/e", "/insights/f"} {
		results = append(results, vectorstore.SearchResult{URL: path, Title: path})
	}

	refs := extractReferences(results)
	if len(refs) != maxReferences {
		t.Fatalf("unexpected reference count: got %d want %d", len(refs), maxReferences)
	}
}
