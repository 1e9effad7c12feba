package answer

import (
	"context"
	"strings"
	"time"

	"aidly-widget-be/pkg/llm"
)

// Engine produces the bot's reply to a visitor question. Implementations
// must be safe for concurrent use; the widget chat path calls this directly.
type Engine interface {
	Answer(ctx context.Context, systemPrompt, question string) (reply string, latencyMs int, err error)
}

// LLMEngine answers through a configured LLM provider.
type LLMEngine struct {
	provider llm.LLMProvider
}

func NewLLMEngine(provider llm.LLMProvider) *LLMEngine {
	return &LLMEngine{provider: provider}
}

func (e *LLMEngine) Answer(ctx context.Context, systemPrompt, question string) (string, int, error) {
	history := []llm.Message{}
	if systemPrompt != "" {
		history = append(history, llm.Message{Role: "system", Content: systemPrompt})
	}
	history = append(history, llm.Message{Role: "user", Content: question})

	start := time.Now()
	reply, err := e.provider.Chat(ctx, history, llm.WithTemperature(0.7))
	latency := int(time.Since(start).Milliseconds())
	if err != nil {
		return "", latency, err
	}

	return strings.TrimSpace(reply), latency, nil
}

// StaticEngine replies with a fixed message. Used when no LLM provider is
// configured and in tests.
type StaticEngine struct {
	Reply string
}

func (e StaticEngine) Answer(ctx context.Context, systemPrompt, question string) (string, int, error) {
	return e.Reply, 0, nil
}
