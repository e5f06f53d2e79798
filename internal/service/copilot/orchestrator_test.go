package copilot

import (
	"context"
	"errors"
	"strings"
	"testing"

	model "github.com/sensihi/copilot/internal/model/copilot"
	"github.com/sensihi/copilot/internal/model/persona"
	"github.com/sensihi/copilot/internal/service/analytics"
	"github.com/sensihi/copilot/internal/service/guard"
	"github.com/sensihi/copilot/internal/service/session"
)

type fakeResolver struct {
	contextText string
	references  []model.Reference
}

func (f *fakeResolver) Resolve(_ context.Context, _, _ string) (string, []model.Reference) {
	if f.contextText == "" {
		return "fallback context", []model.Reference{}
	}
	return f.contextText, f.references
}

type fakeGenerator struct {
	answer string
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(_ context.Context, _ []string, _, _ string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func newTestService(t *testing.T, gen Generator) (*Service, session.Store) {
	t.Helper()
	sessions, err := session.NewStore(session.StoreTypeMemory)
	if err != nil {
		t.Fatalf("NewStore err: %v", err)
	}
	svc := NewService(
		guard.New(guard.Config{}),
		sessions,
		&fakeResolver{},
		gen,
		persona.NewMemoryStore(persona.Seed()),
		analytics.NewEmitter(10),
	)
	return svc, sessions
}

func TestRunGenerationFailureSubstitutesApology(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("provider unavailable")}
	svc, sessions := newTestService(t, gen)
	ctx := context.Background()

	resp, err := svc.Run(ctx, model.Request{
		Message:   "What does Sensihi do?",
		SessionID: "s1",
	}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}

	if resp.Message != apologyMessage {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
	if len(resp.References) != 0 {
		t.Fatalf("expected no references, got %v", resp.References)
	}
	if resp.Lead != nil {
		t.Fatal("apology path must not carry a lead score")
	}
	if len(resp.CTA) != 2 || resp.CTA[0].URL != "/insights" {
		t.Fatalf("expected default exploring CTA pair, got %v", resp.CTA)
	}

	// Memory is still appended on the failure path.
	messages, _ := sessions.Messages(ctx, "s1")
	if len(messages) != 1 {
		t.Fatalf("expected message appended despite failure, got %d", len(messages))
	}
}

func TestRunDemoRequestFirstTurn(t *testing.T) {
	gen := &fakeGenerator{answer: "Happy to set that up."}
	svc, _ := newTestService(t, gen)

	resp, err := svc.Run(context.Background(), model.Request{
		Message:   "I'd like a demo",
		SessionID: "s1",
	}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}

	if resp.Intent != model.IntentHighIntent {
		t.Fatalf("unexpected intent: %s", resp.Intent)
	}
	if resp.Lead == nil {
		t.Fatal("expected a lead score")
	}
	if resp.Lead.Tier != model.TierHot && resp.Lead.Tier != model.TierWarm {
		t.Fatalf("expected at least warm tier, got %s", resp.Lead.Tier)
	}
	if resp.CTA[0].URL != "/contact" {
		t.Fatalf("expected contact CTA first, got %v", resp.CTA)
	}
}

func TestRunStaticShortCircuitSkipsGeneration(t *testing.T) {
	gen := &fakeGenerator{answer: "should not be used"}
	svc, sessions := newTestService(t, gen)
	ctx := context.Background()

	resp, err := svc.Run(ctx, model.Request{
		Message:   "How do I contact you?",
		SessionID: "s1",
	}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}

	if gen.calls != 0 {
		t.Fatal("static answers must not invoke generation")
	}
	if !strings.Contains(resp.Message, "contact page") {
		t.Fatalf("unexpected static answer: %q", resp.Message)
	}
	if resp.Lead == nil {
		t.Fatal("static path still scores the lead")
	}

	messages, _ := sessions.Messages(ctx, "s1")
	if len(messages) != 1 {
		t.Fatalf("static path must update memory, got %d messages", len(messages))
	}
}

func TestRunPersonaAdaptation(t *testing.T) {
	gen := &fakeGenerator{answer: "Sensihi embeds AI in workflows."}
	svc, _ := newTestService(t, gen)

	resp, err := svc.Run(context.Background(), model.Request{
		Message:   "How does Sensihi approach automation?",
		SessionID: "s1",
		Persona:   "founder",
	}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}

	if !strings.HasPrefix(resp.Message, "From a founder's perspective:") {
		t.Fatalf("expected persona framing, got %q", resp.Message)
	}
}

func TestRunUnknownPersonaUnchanged(t *testing.T) {
	gen := &fakeGenerator{answer: "Plain answer."}
	svc, _ := newTestService(t, gen)

	resp, _ := svc.Run(context.Background(), model.Request{
		Message:   "How does Sensihi approach automation?",
		SessionID: "s1",
		Persona:   "pirate",
	}, "10.0.0.1")

	if resp.Message != "Plain answer." {
		t.Fatalf("unknown persona must leave the answer unchanged, got %q", resp.Message)
	}
}

func TestRunRateLimitDenies(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	var lastErr error
	for i := 0; i < 11; i++ {
		_, lastErr = svc.Run(ctx, model.Request{
			Message:   "How does Sensihi approach automation?",
			SessionID: "s1",
		}, "10.0.0.9")
	}
	if !errors.Is(lastErr, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", lastErr)
	}
}

func TestRunSessionCapDenies(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	sessions, _ := session.NewStore(session.StoreTypeMemory)
	svc := NewService(
		guard.New(guard.Config{MaxMessagesPerSession: 2, MaxRequestsPerWindow: 100}),
		sessions,
		&fakeResolver{},
		gen,
		persona.NewMemoryStore(persona.Seed()),
		analytics.NewEmitter(10),
	)
	ctx := context.Background()

	var lastErr error
	for i := 0; i < 3; i++ {
		_, lastErr = svc.Run(ctx, model.Request{
			Message:   "How does Sensihi approach automation?",
			SessionID: "capped",
		}, "10.0.0.1")
	}
	if !errors.Is(lastErr, ErrSessionLimit) {
		t.Fatalf("expected ErrSessionLimit, got %v", lastErr)
	}
}

func TestRunWithoutGeneratorNotConfigured(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Run(context.Background(), model.Request{
		Message:   "How does Sensihi approach automation?",
		SessionID: "s1",
	}, "10.0.0.1")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestFormatAnswer(t *testing.T) {
	in := "First paragraph.\n\n\n\nSecond.•Third point.  "
	got := formatAnswer(in)
	if strings.Contains(got, "\n\n\n") {
		t.Fatalf("excess newlines not collapsed: %q", got)
	}
	if !strings.Contains(got, "• Third") {
		t.Fatalf("bullet spacing not normalized: %q", got)
	}
	if strings.HasSuffix(got, " ") {
		t.Fatalf("answer not trimmed: %q", got)
	}
}
