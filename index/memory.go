package index

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/aqua777/go-ragserve/schema"
)

// MemoryIndex is a simple in-memory vector index.
// It is intended for tests and small datasets.
type MemoryIndex struct {
	mu     sync.RWMutex
	points []memoryPoint
	byID   map[string]int
}

type memoryPoint struct {
	id      string
	vector  []float64
	example schema.Example
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates a new empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byID: make(map[string]int),
	}
}

func (m *MemoryIndex) Upsert(ctx context.Context, id string, vector []float64, example schema.Example) error {
	if id == "" {
		return errors.New("point ID cannot be empty")
	}
	if len(vector) == 0 {
		return errors.New("point has no embedding")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := memoryPoint{id: id, vector: vector, example: example}
	if i, ok := m.byID[id]; ok {
		// Replacing keeps the original insertion position.
		m.points[i] = p
		return nil
	}
	m.byID[id] = len(m.points)
	m.points = append(m.points, p)
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, vector []float64, topK int, scoreThreshold float64) ([]schema.Example, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var scored []schema.Example
	for _, p := range m.points {
		score, err := cosineSimilarity(vector, p.vector)
		if err != nil {
			return nil, err
		}
		if score < scoreThreshold {
			continue
		}
		ex := p.example
		ex.Score = score
		scored = append(scored, ex)
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

func (m *MemoryIndex) Stats(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &Stats{Count: int64(len(m.points)), Status: "ready"}, nil
}

func cosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.New("vector lengths do not match")
	}

	var dotProduct, normA, normB float64
	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
