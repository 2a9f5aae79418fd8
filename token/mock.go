package token

// MockCounter is a fixed-size Counter for tests.
type MockCounter struct {
	Tokens int
	Calls  int
}

// CountTokens returns the configured token count.
func (m *MockCounter) CountTokens(text string) int {
	m.Calls++
	return m.Tokens
}

var _ Counter = (*MockCounter)(nil)
