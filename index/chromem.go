package index

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/aqua777/go-ragserve/schema"
)

// ChromemIndex is a vector index backed by chromem-go.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
}

var _ Index = (*ChromemIndex)(nil)

// NewChromemIndex creates a new ChromemIndex.
// If persistPath is empty, the index will be in-memory only.
func NewChromemIndex(persistPath string, collectionName string) (*ChromemIndex, error) {
	var db *chromem.DB
	if persistPath != "" {
		var err error
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create persistent chromem db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	// We pass nil for the embedding function because embeddings are
	// computed externally and passed in explicitly.
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection: %w", err)
	}

	return &ChromemIndex{
		db:         db,
		collection: collection,
	}, nil
}

func (c *ChromemIndex) Upsert(ctx context.Context, id string, vector []float64, example schema.Example) error {
	if len(vector) == 0 {
		return fmt.Errorf("point %s has no embedding", id)
	}

	// chromem-go Document.Metadata is map[string]string, so the label
	// is stored as its decimal form.
	meta := map[string]string{
		"label":    strconv.Itoa(example.Label),
		"category": example.Category,
	}
	if example.FullText != "" {
		meta["full_text"] = example.FullText
	}

	embedding32 := make([]float32, len(vector))
	for i, v := range vector {
		embedding32[i] = float32(v)
	}

	doc := chromem.Document{
		ID:        id,
		Content:   example.Text,
		Metadata:  meta,
		Embedding: embedding32,
	}

	err := c.collection.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU())
	if err != nil {
		return fmt.Errorf("failed to add document to chromem collection: %w", err)
	}
	return nil
}

func (c *ChromemIndex) Search(ctx context.Context, vector []float64, topK int, scoreThreshold float64) ([]schema.Example, error) {
	// chromem rejects queries asking for more results than stored
	// documents, so clamp before querying.
	count := c.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	queryEmbedding32 := make([]float32, len(vector))
	for i, v := range vector {
		queryEmbedding32[i] = float32(v)
	}

	res, err := c.collection.QueryEmbedding(ctx, queryEmbedding32, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromem collection: %w", err)
	}

	examples := make([]schema.Example, 0, len(res))
	for _, doc := range res {
		score := float64(doc.Similarity)
		if score < scoreThreshold {
			continue
		}
		label, _ := strconv.Atoi(doc.Metadata["label"])
		examples = append(examples, schema.Example{
			Text:     doc.Content,
			FullText: doc.Metadata["full_text"],
			Label:    label,
			Category: doc.Metadata["category"],
			Score:    score,
		})
	}
	return examples, nil
}

func (c *ChromemIndex) Stats(ctx context.Context) (*Stats, error) {
	return &Stats{Count: int64(c.collection.Count()), Status: "ready"}, nil
}
