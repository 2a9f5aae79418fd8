package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqua777/go-ragserve/llm"
	"github.com/aqua777/go-ragserve/schema"
)

func TestGetTemplateVars(t *testing.T) {
	tests := []struct {
		template string
		expected []string
	}{
		{"Hello {name}!", []string{"name"}},
		{"Hello {name}, you are {age} years old.", []string{"name", "age"}},
		{"{a} {b} {a}", []string{"a", "b"}}, // duplicates removed
		{"No variables here", []string{}},
		{"{examples_text}\n{input}", []string{"examples_text", "input"}},
	}

	for _, tt := range tests {
		vars := GetTemplateVars(tt.template)
		assert.Equal(t, tt.expected, vars)
	}
}

func TestFormatString(t *testing.T) {
	template := "Hello {name}, you are {age} years old."
	vars := map[string]string{
		"name": "Alice",
		"age":  "30",
	}

	result := FormatString(template, vars)
	assert.Equal(t, "Hello Alice, you are 30 years old.", result)
}

func TestPromptTemplate(t *testing.T) {
	template := "Classify this article:\n\n{input}"
	pt := NewPromptTemplate(template, PromptTypeClassifierUser)

	assert.Equal(t, template, pt.GetTemplate())
	assert.Equal(t, PromptTypeClassifierUser, pt.GetPromptType())
	assert.ElementsMatch(t, []string{"input"}, pt.GetTemplateVars())
}

func TestDefaultClassifierPrompts(t *testing.T) {
	system := DefaultClassifierSystemPrompt()
	assert.ElementsMatch(t, []string{"examples_text"}, system.GetTemplateVars())
	assert.Contains(t, system.GetTemplate(), "You are a news article classifier.")
	assert.Contains(t, system.GetTemplate(), "0 - Politics: Government, elections, policies, international relations, politicians")
	assert.Contains(t, system.GetTemplate(), "4 - Business: Economy, finance, markets, companies, business deals")
	assert.Contains(t, system.GetTemplate(), "Be consistent with the pattern you see in the examples.")

	user := DefaultClassifierUserPrompt()
	result := user.Format(map[string]string{"input": "Stocks rallied today."})
	assert.Equal(t, "Classify this article:\n\nStocks rallied today.", result)
}

func TestDefaultChatPrompts(t *testing.T) {
	system := DefaultChatSystemPrompt()
	assert.ElementsMatch(t, []string{"formatted_history"}, system.GetTemplateVars())
	assert.Contains(t, system.GetTemplate(), "You are a helpful, friendly AI assistant engaged in a conversation.")
	assert.Contains(t, system.GetTemplate(), "- Maintain context from previous messages")

	user := DefaultChatUserPrompt()
	result := user.Format(map[string]string{"message": "Hello there"})
	assert.Equal(t, "User: Hello there", result)
}

func TestFormatExamples(t *testing.T) {
	examples := []schema.Example{
		{Text: "Apple unveils new chip.", Label: 2, Category: "Technology", Score: 0.91},
		{Text: "Parliament passes the budget.", Label: 0, Category: "Politics", Score: 0.7},
	}

	result := FormatExamples(examples)
	expected := "Example 1 (Label: 2 - Technology, Similarity: 0.91):\nApple unveils new chip....\n\n" +
		"Example 2 (Label: 0 - Politics, Similarity: 0.70):\nParliament passes the budget...."
	assert.Equal(t, expected, result)
}

func TestFormatExamplesTruncatesText(t *testing.T) {
	long := strings.Repeat("a", 400)
	result := FormatExamples([]schema.Example{{Text: long, Label: 1, Category: "Sport", Score: 0.8}})

	assert.Contains(t, result, strings.Repeat("a", 300)+"...")
	assert.NotContains(t, result, strings.Repeat("a", 301))
}

func TestFormatExamplesEmpty(t *testing.T) {
	assert.Equal(t, "No similar examples found.", FormatExamples(nil))
	assert.Equal(t, "No similar examples found.", FormatExamples([]schema.Example{}))
}

func TestFormatHistory(t *testing.T) {
	messages := []llm.ChatMessage{
		llm.NewUserMessage("Hi"),
		llm.NewAssistantMessage("Hello! How can I help?"),
		llm.NewUserMessage("What is Go?"),
	}

	result := FormatHistory(messages, 10)
	assert.Equal(t, "User: Hi\nAssistant: Hello! How can I help?\nUser: What is Go?", result)
}

func TestFormatHistoryWindow(t *testing.T) {
	var messages []llm.ChatMessage
	for i := 0; i < 15; i++ {
		messages = append(messages, llm.NewUserMessage("message"))
	}

	result := FormatHistory(messages, 10)
	assert.Equal(t, 10, strings.Count(result, "User: message"))
}

func TestFormatHistoryEmpty(t *testing.T) {
	assert.Equal(t, "This is the start of a new conversation.", FormatHistory(nil, 10))
}

func TestFormatContext(t *testing.T) {
	result := FormatContext("Apple unveils new chip.")
	expected := "Use the context information below to assist the user.\n" +
		"--------------------\n" +
		"Apple unveils new chip.\n" +
		"--------------------\n"
	assert.Equal(t, expected, result)
}
