package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/aqua777/go-ragserve/embedding"
	"github.com/aqua777/go-ragserve/index"
	"github.com/aqua777/go-ragserve/schema"
)

// VectorRetriever retrieves examples by embedding the input and
// searching a vector index. Provider and index calls are retried with
// exponential backoff before the retriever gives up.
type VectorRetriever struct {
	index          index.Index
	embedder       embedding.EmbeddingModel
	topK           int
	scoreThreshold float64
	retry          RetryPolicy
	logger         *slog.Logger
}

var _ Retriever = (*VectorRetriever)(nil)

// NewVectorRetriever creates a new VectorRetriever.
func NewVectorRetriever(idx index.Index, embedder embedding.EmbeddingModel, topK int, scoreThreshold float64) *VectorRetriever {
	return &VectorRetriever{
		index:          idx,
		embedder:       embedder,
		topK:           topK,
		scoreThreshold: scoreThreshold,
		retry:          DefaultRetryPolicy(),
		logger:         slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// WithRetryPolicy sets the retry policy.
func (r *VectorRetriever) WithRetryPolicy(policy RetryPolicy) *VectorRetriever {
	r.retry = policy
	return r
}

// WithLogger sets the logger.
func (r *VectorRetriever) WithLogger(logger *slog.Logger) *VectorRetriever {
	r.logger = logger
	return r
}

func (r *VectorRetriever) Retrieve(ctx context.Context, input string) ([]schema.Example, error) {
	var queryEmbedding []float64
	err := runWithRetry(ctx, r.retry, func(ctx context.Context) error {
		var err error
		queryEmbedding, err = r.embedder.GetQueryEmbedding(ctx, input)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}

	var results []schema.Example
	err = runWithRetry(ctx, r.retry, func(ctx context.Context) error {
		var err error
		results, err = r.index.Search(ctx, queryEmbedding, r.topK, r.scoreThreshold)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search index failed: %w", err)
	}

	// Backends already filter and rank; re-applying both keeps every
	// backend on the same contract.
	filtered := make([]schema.Example, 0, len(results))
	for _, ex := range results {
		if ex.Score < r.scoreThreshold {
			continue
		}
		filtered = append(filtered, ex)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	if len(filtered) > r.topK {
		filtered = filtered[:r.topK]
	}

	r.logger.Debug("Retrieved similar examples", "count", len(filtered), "top_k", r.topK, "score_threshold", r.scoreThreshold)
	return filtered, nil
}
