package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates missing tables and indexes.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS classification_history (
			id BIGSERIAL PRIMARY KEY,
			text TEXT NOT NULL,
			predicted_label INTEGER NOT NULL,
			predicted_category VARCHAR(50) NOT NULL,
			confidence DOUBLE PRECISION,
			reasoning TEXT,
			retrieved_examples JSONB,
			num_retrieved_examples INTEGER,
			model_used VARCHAR(100) NOT NULL DEFAULT 'gpt-4.1',
			pipeline_version VARCHAR(50) DEFAULT 'v1.0',
			retrieval_time_ms BIGINT,
			classification_time_ms BIGINT,
			total_time_ms BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_classification_history_created_at
			ON classification_history (created_at)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id VARCHAR(100) PRIMARY KEY,
			title VARCHAR(200),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			conversation_id VARCHAR(100) NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			sender VARCHAR(20) NOT NULL,
			text TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			model_used VARCHAR(100),
			tokens_used INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation_id
			ON messages (conversation_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// SaveClassification stores a record and returns its ID.
func (s *PostgresStore) SaveClassification(ctx context.Context, record *ClassificationRecord) (int64, error) {
	var examplesJSON []byte
	if len(record.RetrievedExamples) > 0 {
		var err error
		examplesJSON, err = json.Marshal(record.RetrievedExamples)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal retrieved examples: %w", err)
		}
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO classification_history
			(text, predicted_label, predicted_category, confidence, reasoning,
			 retrieved_examples, num_retrieved_examples, model_used, pipeline_version,
			 retrieval_time_ms, classification_time_ms, total_time_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		record.Text, record.PredictedLabel, record.PredictedCategory, record.Confidence, record.Reasoning,
		examplesJSON, record.NumRetrieved, record.ModelUsed, record.PipelineVersion,
		record.RetrievalTimeMs, record.ClassificationTimeMs, record.TotalTimeMs,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save classification: %w", err)
	}
	return id, nil
}

// ListClassifications returns records newest first.
func (s *PostgresStore) ListClassifications(ctx context.Context, skip, limit int) ([]ClassificationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, text, predicted_label, predicted_category, confidence, reasoning,
			retrieved_examples, num_retrieved_examples, model_used, pipeline_version,
			retrieval_time_ms, classification_time_ms, total_time_ms, created_at
		 FROM classification_history
		 ORDER BY created_at DESC, id DESC
		 OFFSET $1 LIMIT $2`,
		skip, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list classifications: %w", err)
	}
	defer rows.Close()

	var records []ClassificationRecord
	for rows.Next() {
		var rec ClassificationRecord
		var examplesJSON []byte
		if err := rows.Scan(
			&rec.ID, &rec.Text, &rec.PredictedLabel, &rec.PredictedCategory, &rec.Confidence, &rec.Reasoning,
			&examplesJSON, &rec.NumRetrieved, &rec.ModelUsed, &rec.PipelineVersion,
			&rec.RetrievalTimeMs, &rec.ClassificationTimeMs, &rec.TotalTimeMs, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}
		if len(examplesJSON) > 0 {
			if err := json.Unmarshal(examplesJSON, &rec.RetrievedExamples); err != nil {
				return nil, fmt.Errorf("failed to unmarshal retrieved examples: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountClassifications returns the total number of stored records.
func (s *PostgresStore) CountClassifications(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM classification_history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count classifications: %w", err)
	}
	return count, nil
}

// GetOrCreateConversation fetches a conversation, creating it first if
// absent.
func (s *PostgresStore) GetOrCreateConversation(ctx context.Context, id string) (*Conversation, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversations (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return s.GetConversation(ctx, id)
}

// GetConversation fetches a conversation, or (nil, nil) if absent.
func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	var title *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations WHERE id = $1`, id,
	).Scan(&conv.ID, &title, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if title != nil {
		conv.Title = *title
	}
	return &conv, nil
}

// AppendMessage stores a message and fills in its ID and timestamp.
// model_used and tokens_used stay NULL for user messages.
func (s *PostgresStore) AppendMessage(ctx context.Context, msg *Message) error {
	var modelUsed, tokensUsed any
	if msg.ModelUsed != "" {
		modelUsed = msg.ModelUsed
	}
	if msg.TokensUsed > 0 {
		tokensUsed = msg.TokensUsed
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (conversation_id, sender, text, model_used, tokens_used)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, timestamp`,
		msg.ConversationID, msg.Sender, msg.Text, modelUsed, tokensUsed,
	).Scan(&msg.ID, &msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// ListMessages returns a conversation's messages oldest first.
func (s *PostgresStore) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, sender, text, timestamp, COALESCE(model_used, ''), COALESCE(tokens_used, 0)
		 FROM messages
		 WHERE conversation_id = $1
		 ORDER BY timestamp ASC, id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.Sender, &msg.Text, &msg.Timestamp,
			&msg.ModelUsed, &msg.TokensUsed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// TouchConversation bumps a conversation's updated_at.
func (s *PostgresStore) TouchConversation(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE conversations SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}
