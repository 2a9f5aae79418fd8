// Package index provides vector index backends for example retrieval.
package index

import (
	"context"

	"github.com/aqua777/go-ragserve/schema"
)

// Stats describes the current state of an index.
type Stats struct {
	// Count is the number of stored examples.
	Count int64
	// Status is the backend-reported status, e.g. "ready" or "green".
	Status string
}

// Index is the interface for vector index backends.
// All backends use cosine similarity.
type Index interface {
	// Upsert stores an example under the given ID, replacing any
	// existing example with the same ID.
	Upsert(ctx context.Context, id string, vector []float64, example schema.Example) error

	// Search returns up to topK examples ordered by descending
	// similarity to the query vector. Examples scoring strictly below
	// scoreThreshold are excluded. An empty index yields an empty
	// result, not an error.
	Search(ctx context.Context, vector []float64, topK int, scoreThreshold float64) ([]schema.Example, error)

	// Stats reports the number of stored examples and backend status.
	Stats(ctx context.Context) (*Stats, error)
}
