package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aqua777/go-ragserve/chat"
	"github.com/aqua777/go-ragserve/history"
	"github.com/aqua777/go-ragserve/llm"
	"github.com/aqua777/go-ragserve/pipeline"
	"github.com/aqua777/go-ragserve/schema"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	ConversationID string `json:"conversation_id" validate:"required,min=1,max=100"`
	Message        string `json:"message" validate:"required,min=1"`
}

// Validate checks the request fields.
func (r *ChatRequest) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// ChatResponse is the response of POST /chat.
type ChatResponse struct {
	ConversationID string    `json:"conversation_id"`
	Response       string    `json:"response"`
	Timestamp      time.Time `json:"timestamp"`
	ModelUsed      string    `json:"model_used"`
}

// ConversationMessage is one message in a conversation response.
type ConversationMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationResponse is the response of GET /history/{conversation_id}.
type ConversationResponse struct {
	ConversationID string                `json:"conversation_id"`
	Messages       []ConversationMessage `json:"messages"`
	MessageCount   int                   `json:"message_count"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// handleChat generates a reply in a conversation, creating the
// conversation on first use. The chat generator is built per request
// around the stored history snapshot, then run through the same worker
// pool as classification.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := s.store.GetOrCreateConversation(r.Context(), req.ConversationID)
	if err != nil {
		s.logger.Error("failed to load conversation", "conversation_id", req.ConversationID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "chat failed")
		return
	}
	stored, err := s.store.ListMessages(r.Context(), conv.ID)
	if err != nil {
		s.logger.Error("failed to load messages", "conversation_id", conv.ID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "chat failed")
		return
	}

	generator := chat.NewGenerator(s.chatLLM, chatHistory(stored)).
		WithWindow(s.settings.HistoryWindow).
		WithLogger(s.logger)
	if s.counter != nil {
		generator = generator.WithTokenCounter(s.counter)
	}
	orchestrator := pipeline.NewOrchestrator(s.retriever, generator).WithLogger(s.logger)
	if s.settings.RunTimeout > 0 {
		orchestrator = orchestrator.WithRunTimeout(s.settings.RunTimeout)
	}

	outcome, err := s.pool.Run(r.Context(), orchestrator, req.Message)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunTimeout) {
			s.logger.Error("chat timed out", "conversation_id", conv.ID, "error", err)
			s.errorResponse(w, http.StatusGatewayTimeout, "chat timed out")
			return
		}
		s.logger.Error("chat run failed", "conversation_id", conv.ID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "chat failed")
		return
	}
	result, ok := outcome.Result().(schema.ChatResult)
	if !ok {
		s.logger.Error("unexpected generation result type", "conversation_id", conv.ID)
		s.errorResponse(w, http.StatusInternalServerError, "chat failed")
		return
	}

	tokens := 0
	if s.counter != nil {
		tokens = s.counter.CountTokens(result.Response)
	}
	userMsg := &history.Message{
		ConversationID: conv.ID,
		Sender:         history.SenderUser,
		Text:           req.Message,
	}
	assistantMsg := &history.Message{
		ConversationID: conv.ID,
		Sender:         history.SenderAssistant,
		Text:           result.Response,
		ModelUsed:      s.settings.ChatModel,
		TokensUsed:     tokens,
	}
	if err := s.store.AppendMessage(r.Context(), userMsg); err != nil {
		s.logger.Error("failed to save user message", "conversation_id", conv.ID, "error", err)
	}
	if err := s.store.AppendMessage(r.Context(), assistantMsg); err != nil {
		s.logger.Error("failed to save assistant message", "conversation_id", conv.ID, "error", err)
	}
	if err := s.store.TouchConversation(r.Context(), conv.ID); err != nil {
		s.logger.Error("failed to touch conversation", "conversation_id", conv.ID, "error", err)
	}

	ts := assistantMsg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	s.jsonResponse(w, http.StatusOK, ChatResponse{
		ConversationID: conv.ID,
		Response:       result.Response,
		Timestamp:      ts,
		ModelUsed:      s.settings.ChatModel,
	})
}

// chatHistory converts stored messages into prompt history, oldest first.
func chatHistory(stored []history.Message) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(stored))
	for _, m := range stored {
		role := llm.MessageRoleUser
		if m.Sender == history.SenderAssistant {
			role = llm.MessageRoleAssistant
		}
		messages = append(messages, llm.NewChatMessage(role, m.Text))
	}
	return messages
}

// handleGetConversation returns a conversation's messages, oldest first.
func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("conversation_id")
	conv, err := s.store.GetConversation(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to load conversation", "conversation_id", id, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	if conv == nil {
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("Conversation '%s' not found", id))
		return
	}
	stored, err := s.store.ListMessages(r.Context(), conv.ID)
	if err != nil {
		s.logger.Error("failed to load messages", "conversation_id", id, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	messages := make([]ConversationMessage, 0, len(stored))
	for _, m := range stored {
		messages = append(messages, ConversationMessage{
			Sender:    m.Sender,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}
	s.jsonResponse(w, http.StatusOK, ConversationResponse{
		ConversationID: conv.ID,
		Messages:       messages,
		MessageCount:   len(messages),
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
	})
}
