package llm

import "context"

// MockLLM is a mock implementation of the LLM interface.
// It can be configured to return specific responses or errors, and records
// what it was called with.
type MockLLM struct {
	// Response is the text response to return.
	Response string
	// Err is the error to return (if any).
	Err error
	// Calls counts Chat and ChatWithFormat invocations.
	Calls int
	// LastMessages holds the messages from the most recent call.
	LastMessages []ChatMessage
	// LastFormat holds the format from the most recent ChatWithFormat call.
	LastFormat *ResponseFormat
}

// NewMockLLM creates a new MockLLM with a simple response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a new MockLLM that returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Err: err}
}

func (m *MockLLM) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	m.Calls++
	m.LastMessages = messages
	return m.Response, m.Err
}

// ChatWithFormat returns the mock response regardless of format.
func (m *MockLLM) ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (string, error) {
	m.Calls++
	m.LastMessages = messages
	m.LastFormat = format
	return m.Response, m.Err
}

// SupportsStructuredOutput always reports true for the mock.
func (m *MockLLM) SupportsStructuredOutput() bool {
	return true
}

var (
	_ LLM                     = (*MockLLM)(nil)
	_ LLMWithStructuredOutput = (*MockLLM)(nil)
)
