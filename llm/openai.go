package llm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const (
	OpenAI_API_URL_v1 = "https://api.openai.com/v1"
)

// OpenAILLM talks to the OpenAI chat completions API.
type OpenAILLM struct {
	client      *openai.Client
	model       string
	temperature *float32
	logger      *slog.Logger
}

// NewOpenAILLM creates an OpenAI LLM client. Empty arguments fall back to the
// OPENAI_URL / OPENAI_API_KEY environment variables and gpt-4o-mini.
func NewOpenAILLM(baseUrl, model, apiKey string) *OpenAILLM {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	if baseUrl == "" {
		baseUrl = os.Getenv("OPENAI_URL")
		if baseUrl == "" {
			baseUrl = OpenAI_API_URL_v1
		}
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseUrl

	return NewOpenAILLMWithClient(openai.NewClientWithConfig(config), model)
}

// NewOpenAILLMWithClient creates an OpenAI LLM on an existing client, so the
// client can be shared with the embedding model.
func NewOpenAILLMWithClient(client *openai.Client, model string) *OpenAILLM {
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAILLM{
		client: client,
		model:  model,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// WithTemperature fixes the sampling temperature for every request.
func (o *OpenAILLM) WithTemperature(t float32) *OpenAILLM {
	o.temperature = &t
	return o
}

// WithLogger replaces the default logger.
func (o *OpenAILLM) WithLogger(logger *slog.Logger) *OpenAILLM {
	o.logger = logger
	return o
}

// Chat generates a response for a list of chat messages.
func (o *OpenAILLM) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	o.logger.Info("Chat called", "model", o.model, "message_count", len(messages))

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: convertToOpenAIMessages(messages),
	}
	o.applyTemperature(&req)

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		o.logger.Error("Chat failed", "error", err)
		return "", fmt.Errorf("openai chat failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// ChatWithFormat generates a response in the specified format.
func (o *OpenAILLM) ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (string, error) {
	o.logger.Info("ChatWithFormat called", "model", o.model, "message_count", len(messages), "format", format.Type)

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: convertToOpenAIMessages(messages),
	}
	o.applyTemperature(&req)

	if format != nil {
		switch format.Type {
		case "json_object", "json_schema":
			req.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			}
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		o.logger.Error("ChatWithFormat failed", "error", err)
		return "", fmt.Errorf("openai chat with format failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// SupportsStructuredOutput returns true if the model supports structured output.
func (o *OpenAILLM) SupportsStructuredOutput() bool {
	return true
}

func (o *OpenAILLM) applyTemperature(req *openai.ChatCompletionRequest) {
	if o.temperature == nil {
		return
	}
	// The SDK omits a zero temperature from the request, which would leave the
	// provider default in effect; the smallest positive value is sent instead.
	if *o.temperature == 0 {
		req.Temperature = math.SmallestNonzeroFloat32
		return
	}
	req.Temperature = *o.temperature
}

// convertToOpenAIMessages converts ChatMessage slice to OpenAI format.
func convertToOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	openaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		openaiMessages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	return openaiMessages
}

var (
	_ LLM                     = (*OpenAILLM)(nil)
	_ LLMWithStructuredOutput = (*OpenAILLM)(nil)
)
