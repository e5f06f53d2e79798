package copilot

import (
	"context"
	"errors"
	"log"

	"github.com/sensihi/copilot/internal/analysis/intent"
	model "github.com/sensihi/copilot/internal/model/copilot"
	"github.com/sensihi/copilot/internal/model/persona"
	"github.com/sensihi/copilot/internal/service/analytics"
	"github.com/sensihi/copilot/internal/service/guard"
	"github.com/sensihi/copilot/internal/service/lead"
	"github.com/sensihi/copilot/internal/service/session"
)

var (
	// ErrRateLimited signals a per-IP window denial.
	ErrRateLimited = errors.New("too many requests")
	// ErrSessionLimit signals the per-session message cap.
	ErrSessionLimit = errors.New("session message limit reached")
	// ErrNotConfigured signals missing provider credentials.
	ErrNotConfigured = errors.New("completion provider not configured")
)

const (
	apologyMessage = "I'm temporarily at capacity right now. Please try again in a moment."
	emptyAnswer    = "How can I help you with Sensihi?"
)

// Generator is the single generation capability the orchestrator
// consumes. Provider variants are selected by configuration.
type Generator interface {
	Generate(ctx context.Context, history []string, question, contextText string) (string, error)
}

// ContextResolver produces non-empty grounding text plus any references.
type ContextResolver interface {
	Resolve(ctx context.Context, message, sessionID string) (string, []model.Reference)
}

// Service composes guarding, classification, retrieval, generation,
// persona adaptation, memory, scoring, and analytics into one
// request-scoped execution. The user always receives a response even
// when any single upstream dependency fails.
type Service struct {
	guard     *guard.Guard
	sessions  session.Store
	resolver  ContextResolver
	generator Generator
	personas  persona.Store
	analytics *analytics.Emitter
}

// NewService wires the orchestrator. generator may be nil when the
// provider is unconfigured; Run then fails with ErrNotConfigured.
func NewService(
	g *guard.Guard,
	sessions session.Store,
	resolver ContextResolver,
	generator Generator,
	personas persona.Store,
	emitter *analytics.Emitter,
) *Service {
	return &Service{
		guard:     g,
		sessions:  sessions,
		resolver:  resolver,
		generator: generator,
		personas:  personas,
		analytics: emitter,
	}
}

// Run executes one copilot turn. clientIP feeds the per-IP guard.
func (s *Service) Run(ctx context.Context, req model.Request, clientIP string) (model.Response, error) {
	// 1. Guards: IP window first, then the session lifetime cap.
	if clientIP != "" && !s.guard.AllowIP(clientIP) {
		return model.Response{}, ErrRateLimited
	}
	if !s.guard.AllowSession(req.SessionID) {
		return model.Response{}, ErrSessionLimit
	}

	// 2. Intent from the raw message.
	intentResult := intent.Classify(req.Message)

	// 3. Session memory plus the zero-cost static short-circuit.
	memory, err := s.sessions.Messages(ctx, req.SessionID)
	if err != nil {
		log.Printf("[copilot] session read failed: %v", err)
	}

	if answer := staticAnswer(req.Message); answer != "" {
		return s.respondStatic(ctx, req, intentResult, answer, len(memory)), nil
	}

	if s.generator == nil {
		return model.Response{}, ErrNotConfigured
	}

	// 4. Context resolution (reuse -> retrieve -> static -> default).
	contextText, references := s.resolver.Resolve(ctx, req.Message, req.SessionID)

	// 5. Generation. Failure substitutes the apology; the turn still
	// counts toward memory and analytics.
	answer, err := s.generator.Generate(ctx, memory, req.Message, contextText)
	if err != nil {
		log.Printf("[copilot] generation failed: %v", err)
		return s.respondApology(ctx, req, intentResult, len(memory)), nil
	}
	answer = formatAnswer(answer)

	// 6. Persona adaptation.
	answer = s.adaptForPersona(answer, req.Persona)

	// 7. Memory update before scoring so the turn count includes this turn.
	if err := s.sessions.Append(ctx, req.SessionID, req.Message); err != nil {
		log.Printf("[copilot] session append failed: %v", err)
	}

	// 8. Lead scoring.
	leadScore := lead.Score(intentResult.Intent, len(memory)+1, intent.AsksForDemo(req.Message))

	// 9. Analytics, fire-and-forget.
	s.analytics.Track(analytics.Event{
		Type:       "copilot_turn",
		SessionID:  req.SessionID,
		Intent:     string(intentResult.Intent),
		Page:       req.Page,
		LeadTier:   string(leadScore.Tier),
		References: len(references),
	})

	if answer == "" {
		answer = emptyAnswer
	}
	if references == nil {
		references = []model.Reference{}
	}

	// 10. Final response.
	return model.Response{
		Message:    answer,
		Intent:     intentResult.Intent,
		Confidence: intentResult.Confidence,
		References: references,
		Lead:       &leadScore,
		CTA:        recommendNextAction(intentResult.Intent),
	}, nil
}

// respondStatic answers from the exact-answer table without touching any
// network dependency.
func (s *Service) respondStatic(ctx context.Context, req model.Request, intentResult model.IntentResult, answer string, priorTurns int) model.Response {
	if err := s.sessions.Append(ctx, req.SessionID, req.Message); err != nil {
		log.Printf("[copilot] session append failed: %v", err)
	}

	leadScore := lead.Score(intentResult.Intent, priorTurns+1, false)

	s.analytics.Track(analytics.Event{
		Type:      "copilot_turn",
		SessionID: req.SessionID,
		Intent:    string(intentResult.Intent),
		Page:      req.Page,
		LeadTier:  string(leadScore.Tier),
	})

	return model.Response{
		Message:    s.adaptForPersona(answer, req.Persona),
		Intent:     intentResult.Intent,
		Confidence: intentResult.Confidence,
		References: []model.Reference{},
		Lead:       &leadScore,
		CTA:        recommendNextAction(intentResult.Intent),
	}
}

// respondApology substitutes the fixed apology after a generation
// failure. Memory and analytics still happen; persona adaptation and
// lead scoring are skipped.
func (s *Service) respondApology(ctx context.Context, req model.Request, intentResult model.IntentResult, priorTurns int) model.Response {
	if err := s.sessions.Append(ctx, req.SessionID, req.Message); err != nil {
		log.Printf("[copilot] session append failed: %v", err)
	}

	s.analytics.Track(analytics.Event{
		Type:      "copilot_generation_failed",
		SessionID: req.SessionID,
		Intent:    string(intentResult.Intent),
		Page:      req.Page,
	})

	return model.Response{
		Message:    apologyMessage,
		Intent:     intentResult.Intent,
		Confidence: intentResult.Confidence,
		References: []model.Reference{},
		CTA:        recommendNextAction(intentResult.Intent),
	}
}

func (s *Service) adaptForPersona(answer, personaID string) string {
	if personaID == "" || s.personas == nil {
		return answer
	}
	p, ok := s.personas.FindByID(personaID)
	if !ok {
		return answer
	}
	return persona.Adapt(p, answer)
}
