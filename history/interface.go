package history

import "context"

// Store persists classification history and conversations.
type Store interface {
	// EnsureSchema creates missing tables and indexes.
	EnsureSchema(ctx context.Context) error

	// SaveClassification stores a record and returns its ID.
	SaveClassification(ctx context.Context, record *ClassificationRecord) (int64, error)

	// ListClassifications returns records newest first, skipping skip
	// records and returning at most limit.
	ListClassifications(ctx context.Context, skip, limit int) ([]ClassificationRecord, error)

	// CountClassifications returns the total number of stored records.
	CountClassifications(ctx context.Context) (int64, error)

	// GetOrCreateConversation fetches a conversation, creating it
	// first if absent.
	GetOrCreateConversation(ctx context.Context, id string) (*Conversation, error)

	// GetConversation fetches a conversation, or (nil, nil) if absent.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// AppendMessage stores a message and fills in its ID and
	// timestamp.
	AppendMessage(ctx context.Context, msg *Message) error

	// ListMessages returns a conversation's messages oldest first.
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)

	// TouchConversation bumps a conversation's updated_at.
	TouchConversation(ctx context.Context, id string) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close()
}
