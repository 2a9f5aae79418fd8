// Package llm provides chat-oriented access to Large Language Model
// providers, including schema-constrained structured output.
package llm

import "context"

// LLM is the interface for interacting with Large Language Models.
type LLM interface {
	// Chat generates a response for a list of chat messages.
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
}

// LLMWithStructuredOutput extends LLM with structured output capabilities.
type LLMWithStructuredOutput interface {
	LLM
	// ChatWithFormat generates a response in the specified format.
	ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (string, error)
	// SupportsStructuredOutput returns true if the model supports structured output.
	SupportsStructuredOutput() bool
}
