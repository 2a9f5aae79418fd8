package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aqua777/go-ragserve/schema"
)

// QdrantIndex is a vector index backed by a Qdrant server, accessed
// over its REST API. It assumes cosine distance.
type QdrantIndex struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
	logger     *slog.Logger
}

var _ Index = (*QdrantIndex)(nil)

// NewQdrantIndex creates a new QdrantIndex for the given server URL
// and collection. The API key may be empty for unsecured servers.
func NewQdrantIndex(baseURL, apiKey, collection string) *QdrantIndex {
	return &QdrantIndex{
		baseURL:    baseURL,
		apiKey:     apiKey,
		collection: collection,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// WithLogger sets the logger.
func (q *QdrantIndex) WithLogger(logger *slog.Logger) *QdrantIndex {
	q.logger = logger
	return q
}

// EnsureCollection creates the collection if it does not exist.
// Qdrant returns 200 OK when the collection already exists with the
// same schema.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := q.putJSON(ctx, fmt.Sprintf("%s/collections/%s", q.baseURL, q.collection), body); err != nil {
		return err
	}
	q.logger.Info("Qdrant collection ready", "collection", q.collection, "dimension", dimension)
	return nil
}

func (q *QdrantIndex) Upsert(ctx context.Context, id string, vector []float64, example schema.Example) error {
	if len(vector) == 0 {
		return fmt.Errorf("point %s has no embedding", id)
	}

	payload := map[string]any{
		"text":     example.Text,
		"label":    example.Label,
		"category": example.Category,
	}
	if example.FullText != "" {
		payload["full_text"] = example.FullText
	}

	body := map[string]any{
		"points": []map[string]any{
			{
				"id":      id,
				"vector":  vector,
				"payload": payload,
			},
		},
	}
	return q.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", q.baseURL, q.collection), body)
}

func (q *QdrantIndex) Search(ctx context.Context, vector []float64, topK int, scoreThreshold float64) ([]schema.Example, error) {
	req := map[string]any{
		"vector":          vector,
		"limit":           topK,
		"with_payload":    true,
		"score_threshold": scoreThreshold,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := q.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", q.baseURL, q.collection), req, &resp); err != nil {
		return nil, err
	}

	examples := make([]schema.Example, 0, len(resp.Result))
	for _, r := range resp.Result {
		ex := schema.Example{Score: r.Score}
		if v, ok := r.Payload["text"].(string); ok {
			ex.Text = v
		}
		if v, ok := r.Payload["full_text"].(string); ok {
			ex.FullText = v
		}
		if v, ok := r.Payload["label"].(float64); ok {
			ex.Label = int(v)
		}
		if v, ok := r.Payload["category"].(string); ok {
			ex.Category = v
		}
		examples = append(examples, ex)
	}
	q.logger.Debug("Qdrant search completed", "collection", q.collection, "results", len(examples))
	return examples, nil
}

func (q *QdrantIndex) Stats(ctx context.Context) (*Stats, error) {
	var resp struct {
		Result struct {
			Status      string `json:"status"`
			PointsCount int64  `json:"points_count"`
		} `json:"result"`
	}
	if err := q.getJSON(ctx, fmt.Sprintf("%s/collections/%s", q.baseURL, q.collection), &resp); err != nil {
		return nil, err
	}
	return &Stats{Count: resp.Result.PointsCount, Status: resp.Result.Status}, nil
}

func (q *QdrantIndex) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	q.setHeaders(req)
	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (q *QdrantIndex) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	q.setHeaders(req)
	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (q *QdrantIndex) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	q.setHeaders(req)
	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant GET %s failed: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (q *QdrantIndex) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
}
