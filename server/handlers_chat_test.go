package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/go-ragserve/chat"
	"github.com/aqua777/go-ragserve/history"
	"github.com/aqua777/go-ragserve/llm"
)

func TestChatCreatesConversation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/chat", `{"conversation_id": "conv-1", "message": "what is this about?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "conv-1", resp.ConversationID)
	assert.Equal(t, "The article is about semiconductors.", resp.Response)
	assert.Equal(t, "gpt-4o-mini", resp.ModelUsed)
	assert.False(t, resp.Timestamp.IsZero())

	ctx := context.Background()
	conv, err := env.store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, conv)

	messages, err := env.store.ListMessages(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, history.SenderUser, messages[0].Sender)
	assert.Equal(t, "what is this about?", messages[0].Text)
	assert.Equal(t, history.SenderAssistant, messages[1].Sender)
	assert.Equal(t, "The article is about semiconductors.", messages[1].Text)
	assert.Equal(t, "gpt-4o-mini", messages[1].ModelUsed)
	assert.Equal(t, 7, messages[1].TokensUsed)
}

func TestChatIncludesHistoryInPrompt(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/chat", `{"conversation_id": "conv-1", "message": "what is this about?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/chat", `{"conversation_id": "conv-1", "message": "tell me more"}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.NotEmpty(t, env.chatLLM.LastMessages)
	system := env.chatLLM.LastMessages[0]
	require.Equal(t, llm.MessageRoleSystem, system.Role)
	assert.Contains(t, system.Content, "User: what is this about?")
	assert.Contains(t, system.Content, "Assistant: The article is about semiconductors.")
}

func TestChatAddsRetrievedContext(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/chat", `{"conversation_id": "conv-1", "message": "what chip news is there?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	messages := env.chatLLM.LastMessages
	require.Len(t, messages, 3)
	assert.Equal(t, llm.MessageRoleSystem, messages[0].Role)
	assert.Equal(t, llm.MessageRoleSystem, messages[1].Role)
	assert.Contains(t, messages[1].Content, "Apple unveils new chip.")
	assert.Equal(t, llm.MessageRoleUser, messages[2].Role)
	assert.Equal(t, "User: what chip news is there?", messages[2].Content)
}

func TestChatWithoutContext(t *testing.T) {
	env := newTestEnv(t)
	env.retriever.examples = nil

	w := env.do(t, http.MethodPost, "/chat", `{"conversation_id": "conv-1", "message": "hello"}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, env.chatLLM.LastMessages, 2)
	assert.Contains(t, env.chatLLM.LastMessages[0].Content, "start of a new conversation")
}

func TestChatDegradedReturnsApology(t *testing.T) {
	env := newTestEnv(t)
	env.chatLLM.Err = errors.New("provider down")

	w := env.do(t, http.MethodPost, "/chat", `{"conversation_id": "conv-1", "message": "hello"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, chat.Apology, resp.Response)

	// The degraded reply is part of the conversation record.
	messages, err := env.store.ListMessages(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, chat.Apology, messages[1].Text)
}

func TestChatRetrievalFailure(t *testing.T) {
	env := newTestEnv(t)
	env.retriever.err = errors.New("index offline")

	w := env.do(t, http.MethodPost, "/chat", `{"conversation_id": "conv-1", "message": "hello"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "chat failed", resp["error"])
	assert.NotContains(t, w.Body.String(), "offline")

	// No messages are stored for a failed run.
	messages, err := env.store.ListMessages(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestChatValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"missing conversation id", `{"message": "hello"}`},
		{"empty message", `{"conversation_id": "conv-1", "message": ""}`},
		{"oversized conversation id", `{"conversation_id": "` + strings.Repeat("c", 101) + `", "message": "hello"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/chat", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Zero(t, env.chatLLM.Calls)
}

func TestGetConversation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/chat", `{"conversation_id": "conv-1", "message": "what is this about?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/history/conv-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ConversationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "conv-1", resp.ConversationID)
	assert.Equal(t, 2, resp.MessageCount)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, history.SenderUser, resp.Messages[0].Sender)
	assert.Equal(t, history.SenderAssistant, resp.Messages[1].Sender)
	assert.False(t, resp.CreatedAt.IsZero())
	assert.False(t, resp.UpdatedAt.IsZero())
}

func TestGetConversationNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/history/missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Conversation 'missing' not found", resp["error"])
}

func TestChatHistoryConversion(t *testing.T) {
	stored := []history.Message{
		{Sender: history.SenderUser, Text: "hi"},
		{Sender: history.SenderAssistant, Text: "hello"},
	}
	messages := chatHistory(stored)
	require.Len(t, messages, 2)
	assert.Equal(t, llm.MessageRoleUser, messages[0].Role)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, llm.MessageRoleAssistant, messages[1].Role)
	assert.Equal(t, "hello", messages[1].Content)
}
