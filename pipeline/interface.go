package pipeline

import (
	"context"

	"github.com/aqua777/go-ragserve/schema"
)

// Retriever fetches examples similar to the input text.
type Retriever interface {
	// Retrieve returns examples ordered by descending similarity.
	Retrieve(ctx context.Context, input string) ([]schema.Example, error)
}

// Generator produces a result from the input and retrieved examples.
type Generator interface {
	// Generate produces a result. An error here never aborts a run;
	// the orchestrator substitutes Fallback instead.
	Generate(ctx context.Context, input string, examples []schema.Example) (schema.GenerationResult, error)

	// Fallback returns the degraded result used when Generate fails.
	Fallback(err error) schema.GenerationResult
}
