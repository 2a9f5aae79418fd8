package history

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu              sync.RWMutex
	classifications []ClassificationRecord
	conversations   map[string]*Conversation
	messages        map[string][]Message
	nextRecordID    int64
	nextMessageID   int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]Message),
	}
}

func (s *MemoryStore) EnsureSchema(ctx context.Context) error { return nil }

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() {}

func (s *MemoryStore) SaveClassification(ctx context.Context, record *ClassificationRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRecordID++
	stored := *record
	stored.ID = s.nextRecordID
	stored.CreatedAt = time.Now().UTC()
	s.classifications = append(s.classifications, stored)
	return stored.ID, nil
}

func (s *MemoryStore) ListClassifications(ctx context.Context, skip, limit int) ([]ClassificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Records are appended in insertion order; walk backwards for
	// newest first.
	records := make([]ClassificationRecord, 0, limit)
	for i := len(s.classifications) - 1 - skip; i >= 0 && len(records) < limit; i-- {
		records = append(records, s.classifications[i])
	}
	return records, nil
}

func (s *MemoryStore) CountClassifications(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.classifications)), nil
}

func (s *MemoryStore) GetOrCreateConversation(ctx context.Context, id string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[id]; ok {
		copied := *conv
		return &copied, nil
	}

	now := time.Now().UTC()
	conv := &Conversation{ID: id, CreatedAt: now, UpdatedAt: now}
	s.conversations[id] = conv
	copied := *conv
	return &copied, nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	copied := *conv
	return &copied, nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMessageID++
	msg.ID = s.nextMessageID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	return nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.messages[conversationID]
	messages := make([]Message, len(stored))
	copy(messages, stored)
	return messages, nil
}

func (s *MemoryStore) TouchConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[id]; ok {
		conv.UpdatedAt = time.Now().UTC()
	}
	return nil
}
