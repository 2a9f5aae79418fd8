// Package chat generates conversational responses with a windowed
// history and optional retrieved context.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aqua777/go-ragserve/llm"
	"github.com/aqua777/go-ragserve/outputparser"
	"github.com/aqua777/go-ragserve/pipeline"
	"github.com/aqua777/go-ragserve/prompts"
	"github.com/aqua777/go-ragserve/schema"
	"github.com/aqua777/go-ragserve/token"
)

// Apology is the degraded reply used when generation fails.
const Apology = "I apologize, but I encountered an error generating a response. Please try again."

// DefaultWindow is how many history messages feed the prompt.
const DefaultWindow = 10

// Generator produces chat replies. It is built per request around the
// conversation's history snapshot and implements pipeline.Generator.
type Generator struct {
	llm          llm.LLMWithStructuredOutput
	counter      token.Counter
	history      []llm.ChatMessage
	window       int
	logger       *slog.Logger
	systemPrompt *prompts.PromptTemplate
	userPrompt   *prompts.PromptTemplate
}

var _ pipeline.Generator = (*Generator)(nil)

// NewGenerator creates a chat generator over the given history
// snapshot, ordered oldest first.
func NewGenerator(model llm.LLMWithStructuredOutput, history []llm.ChatMessage) *Generator {
	return &Generator{
		llm:          model,
		history:      history,
		window:       DefaultWindow,
		logger:       slog.New(slog.NewJSONHandler(os.Stdout, nil)),
		systemPrompt: prompts.DefaultChatSystemPrompt(),
		userPrompt:   prompts.DefaultChatUserPrompt(),
	}
}

// WithWindow sets how many trailing history messages feed the prompt.
func (g *Generator) WithWindow(window int) *Generator {
	g.window = window
	return g
}

// WithTokenCounter sets a token counter used for prompt size logging.
func (g *Generator) WithTokenCounter(counter token.Counter) *Generator {
	g.counter = counter
	return g
}

// WithLogger sets the logger.
func (g *Generator) WithLogger(logger *slog.Logger) *Generator {
	g.logger = logger
	return g
}

func (g *Generator) Generate(ctx context.Context, input string, examples []schema.Example) (schema.GenerationResult, error) {
	systemMsg := g.systemPrompt.Format(map[string]string{
		"formatted_history": prompts.FormatHistory(g.history, g.window),
	})
	userMsg := g.userPrompt.Format(map[string]string{
		"message": input,
	})

	messages := []llm.ChatMessage{llm.NewSystemMessage(systemMsg)}
	if len(examples) > 0 {
		messages = append(messages, llm.NewSystemMessage(prompts.FormatContext(contextText(examples))))
	}
	messages = append(messages, llm.NewUserMessage(userMsg))

	if g.counter != nil {
		promptTokens := 0
		for _, msg := range messages {
			promptTokens += g.counter.CountTokens(msg.Content)
		}
		g.logger.Debug("Chat prompt built", "prompt_tokens", promptTokens, "history_messages", len(g.history))
	}

	output, err := g.llm.ChatWithFormat(ctx, messages, llm.NewJSONResponseFormat())
	if err != nil {
		return nil, fmt.Errorf("chat generation failed: %w", err)
	}

	var result schema.ChatResult
	if err := outputparser.ParseObject(output, &result); err != nil {
		return nil, fmt.Errorf("chat output invalid: %w", err)
	}
	return result, nil
}

// Fallback returns the apology reply used when Generate fails.
func (g *Generator) Fallback(err error) schema.GenerationResult {
	return schema.ChatResult{Response: Apology}
}

// contextText renders retrieved examples for the context system
// message, preferring the full article text when stored.
func contextText(examples []schema.Example) string {
	parts := make([]string, 0, len(examples))
	for _, ex := range examples {
		text := ex.Text
		if ex.FullText != "" {
			text = ex.FullText
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}
