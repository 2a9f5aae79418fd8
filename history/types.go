// Package history persists classification results and conversations.
package history

import (
	"time"

	"github.com/aqua777/go-ragserve/schema"
)

// ClassificationRecord is a stored classification result.
type ClassificationRecord struct {
	ID                int64   `json:"id"`
	Text              string  `json:"text"`
	PredictedLabel    int     `json:"predicted_label"`
	PredictedCategory string  `json:"predicted_category"`
	Confidence        float64 `json:"confidence"`
	Reasoning         string  `json:"reasoning"`

	// RetrievedExamples are the examples that grounded the prediction.
	RetrievedExamples []schema.Example `json:"retrieved_examples,omitempty"`
	NumRetrieved      int              `json:"num_retrieved_examples"`

	ModelUsed       string `json:"model_used"`
	PipelineVersion string `json:"pipeline_version"`

	RetrievalTimeMs      int64 `json:"retrieval_time_ms"`
	ClassificationTimeMs int64 `json:"classification_time_ms"`
	TotalTimeMs          int64 `json:"total_time_ms"`

	CreatedAt time.Time `json:"created_at"`
}

// Conversation is a stored conversation.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single stored conversation message.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
	ModelUsed      string    `json:"model_used,omitempty"`
	TokensUsed     int       `json:"tokens_used,omitempty"`
}

// Message senders.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)
