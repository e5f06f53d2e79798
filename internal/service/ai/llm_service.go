package ai

import (
	"context"
	"fmt"
	"log"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// systemPrompt pins the model to the retrieved context. No fabrication,
// no meta-commentary about sources.
const systemPrompt = `You are Sensihi's website copilot.

Rules:
- Answer ONLY using the provided context.
- Do NOT invent facts or external knowledge.
- Write in clear paragraphs with line breaks.
- If relevant, explain concepts in a practical business context.
- Do NOT mention the word "context" in your reply.
- Do NOT apologize for missing data.`

// Config describes the completion provider.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float32
	MaxTokens   *int
	// Timeout bounds each completion call.
	Timeout time.Duration
}

// Enabled reports whether the required credentials are present.
func (c Config) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// Service generates grounded answers through an eino chat chain.
type Service struct {
	cfg   Config
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the prompt-template -> chat-model chain.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("completion provider credentials or model missing")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	chatModel, err := openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{cfg: cfg, chain: runnable}, nil
}

// Generate produces an answer for the question grounded in contextText,
// with prior user messages supplied as conversational turns.
func (s *Service) Generate(ctx context.Context, history []string, question, contextText string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	historyMessages := make([]*schema.Message, 0, len(history))
	for _, msg := range history {
		historyMessages = append(historyMessages, schema.UserMessage(msg))
	}

	input := map[string]any{
		"system":  systemPrompt,
		"history": historyMessages,
		"query":   fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", contextText, question),
	}

	response, err := s.chain.Invoke(callCtx, input)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	log.Printf("[ai] generated answer length=%d", len(response.Content))
	return response.Content, nil
}
