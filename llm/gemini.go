package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini model constants.
const (
	Gemini15Flash = "gemini-1.5-flash"
	Gemini15Pro   = "gemini-1.5-pro"
	Gemini20Flash = "gemini-2.0-flash"
)

// GeminiLLM talks to Google Gemini through the generative-ai SDK.
type GeminiLLM struct {
	client      *genai.Client
	model       string
	temperature *float32
	logger      *slog.Logger
}

// NewGeminiLLM creates a Gemini LLM client. An empty apiKey falls back to
// GEMINI_API_KEY; an empty model falls back to gemini-1.5-flash.
func NewGeminiLLM(ctx context.Context, apiKey, model string) (*GeminiLLM, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = Gemini15Flash
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiLLM{
		client: client,
		model:  model,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}, nil
}

// WithTemperature fixes the sampling temperature for every request.
func (g *GeminiLLM) WithTemperature(t float32) *GeminiLLM {
	g.temperature = &t
	return g
}

// WithLogger replaces the default logger.
func (g *GeminiLLM) WithLogger(logger *slog.Logger) *GeminiLLM {
	g.logger = logger
	return g
}

// Close releases resources held by the underlying client.
func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Chat generates a response for a list of chat messages.
func (g *GeminiLLM) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	g.logger.Info("Chat called", "model", g.model, "message_count", len(messages))
	return g.generate(ctx, messages, "")
}

// ChatWithFormat generates a response in the specified format.
func (g *GeminiLLM) ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (string, error) {
	g.logger.Info("ChatWithFormat called", "model", g.model, "message_count", len(messages), "format", format.Type)

	mimeType := ""
	if format != nil && (format.Type == "json_object" || format.Type == "json_schema") {
		mimeType = "application/json"
	}
	return g.generate(ctx, messages, mimeType)
}

// SupportsStructuredOutput returns true if the model supports structured output.
func (g *GeminiLLM) SupportsStructuredOutput() bool {
	return true
}

func (g *GeminiLLM) generate(ctx context.Context, messages []ChatMessage, responseMIMEType string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	if g.temperature != nil {
		model.SetTemperature(*g.temperature)
	}
	if responseMIMEType != "" {
		model.ResponseMIMEType = responseMIMEType
	}

	system, prompt := convertToGeminiPrompt(messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		g.logger.Error("generate failed", "error", err)
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	return extractGeminiText(resp)
}

// convertToGeminiPrompt folds system messages into a system instruction and
// joins the remaining messages into one prompt.
func convertToGeminiPrompt(messages []ChatMessage) (system string, prompt string) {
	var systemParts, promptParts []string
	for _, msg := range messages {
		if msg.Role == MessageRoleSystem {
			systemParts = append(systemParts, msg.Content)
			continue
		}
		promptParts = append(promptParts, msg.Content)
	}
	return strings.Join(systemParts, "\n\n"), strings.Join(promptParts, "\n\n")
}

// extractGeminiText extracts text from a Gemini API response.
func extractGeminiText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("gemini returned no text parts")
	}

	return strings.Join(parts, ""), nil
}

var (
	_ LLM                     = (*GeminiLLM)(nil)
	_ LLMWithStructuredOutput = (*GeminiLLM)(nil)
)
