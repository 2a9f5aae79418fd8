package index

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/go-ragserve/schema"
)

func TestQdrantIndex_EnsureCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/news_articles", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("api-key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		vectors := body["vectors"].(map[string]any)
		assert.Equal(t, float64(1536), vectors["size"])
		assert.Equal(t, "Cosine", vectors["distance"])

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	idx := NewQdrantIndex(server.URL, "secret", "news_articles")
	err := idx.EnsureCollection(context.Background(), 1536)
	require.NoError(t, err)
}

func TestQdrantIndex_EnsureCollection_InvalidDimension(t *testing.T) {
	idx := NewQdrantIndex("http://localhost:6333", "", "news_articles")
	err := idx.EnsureCollection(context.Background(), 0)
	assert.Error(t, err)
}

func TestQdrantIndex_Upsert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/news_articles/points", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))

		var body struct {
			Points []struct {
				ID      string         `json:"id"`
				Vector  []float64      `json:"vector"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Points, 1)
		assert.Equal(t, "point-1", body.Points[0].ID)
		assert.Equal(t, []float64{0.1, 0.2}, body.Points[0].Vector)
		assert.Equal(t, "Apple unveils new chip.", body.Points[0].Payload["text"])
		assert.Equal(t, float64(2), body.Points[0].Payload["label"])
		assert.Equal(t, "Technology", body.Points[0].Payload["category"])

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	idx := NewQdrantIndex(server.URL, "", "news_articles")
	err := idx.Upsert(context.Background(), "point-1", []float64{0.1, 0.2}, schema.Example{
		Text:     "Apple unveils new chip.",
		Label:    2,
		Category: "Technology",
	})
	require.NoError(t, err)
}

func TestQdrantIndex_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/collections/news_articles/points/search", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(5), body["limit"])
		assert.Equal(t, true, body["with_payload"])
		assert.Equal(t, 0.6, body["score_threshold"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"result": [
				{
					"score": 0.91,
					"payload": {
						"text": "Apple unveils new chip.",
						"full_text": "Apple unveils new chip at its annual event.",
						"label": 2,
						"category": "Technology"
					}
				},
				{
					"score": 0.72,
					"payload": {
						"text": "Parliament passes the budget.",
						"label": 0,
						"category": "Politics"
					}
				}
			]
		}`))
	}))
	defer server.Close()

	idx := NewQdrantIndex(server.URL, "", "news_articles")
	results, err := idx.Search(context.Background(), []float64{0.1, 0.2}, 5, 0.6)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Apple unveils new chip.", results[0].Text)
	assert.Equal(t, "Apple unveils new chip at its annual event.", results[0].FullText)
	assert.Equal(t, 2, results[0].Label)
	assert.Equal(t, "Technology", results[0].Category)
	assert.Equal(t, 0.91, results[0].Score)

	assert.Equal(t, "Parliament passes the budget.", results[1].Text)
	assert.Equal(t, "", results[1].FullText)
	assert.Equal(t, 0, results[1].Label)
}

func TestQdrantIndex_SearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	idx := NewQdrantIndex(server.URL, "", "news_articles")
	_, err := idx.Search(context.Background(), []float64{0.1}, 5, 0.6)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qdrant POST")
}

func TestQdrantIndex_Stats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/collections/news_articles", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": {"status": "green", "points_count": 42}}`))
	}))
	defer server.Close()

	idx := NewQdrantIndex(server.URL, "", "news_articles")
	stats, err := idx.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.Count)
	assert.Equal(t, "green", stats.Status)
}
