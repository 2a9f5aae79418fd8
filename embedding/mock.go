package embedding

import "context"

// MockEmbeddingModel is a mock implementation of the EmbeddingModel interface.
// Calls counts invocations of either method.
type MockEmbeddingModel struct {
	Embedding []float64
	Err       error
	Calls     int
}

func (m *MockEmbeddingModel) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	m.Calls++
	return m.Embedding, m.Err
}

func (m *MockEmbeddingModel) GetQueryEmbedding(ctx context.Context, query string) ([]float64, error) {
	m.Calls++
	return m.Embedding, m.Err
}

var _ EmbeddingModel = (*MockEmbeddingModel)(nil)
