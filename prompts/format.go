package prompts

import (
	"fmt"
	"strings"

	"github.com/aqua777/go-ragserve/llm"
	"github.com/aqua777/go-ragserve/schema"
)

// exampleSnippetLimit bounds the portion of each example shown in the
// classifier prompt.
const exampleSnippetLimit = 300

// FormatExamples renders retrieved examples for the classifier system
// prompt. Each example shows its label, category, similarity score and
// a snippet of its text.
func FormatExamples(examples []schema.Example) string {
	if len(examples) == 0 {
		return NoExamplesText
	}

	formatted := make([]string, 0, len(examples))
	for i, ex := range examples {
		formatted = append(formatted, fmt.Sprintf(
			"Example %d (Label: %d - %s, Similarity: %.2f):\n%s...",
			i+1, ex.Label, ex.Category, ex.Score, schema.Truncate(ex.Text, exampleSnippetLimit),
		))
	}
	return strings.Join(formatted, "\n\n")
}

// FormatHistory renders the most recent window of conversation messages
// as "Sender: text" lines for the chat system prompt.
func FormatHistory(messages []llm.ChatMessage, window int) string {
	if window > 0 && len(messages) > window {
		messages = messages[len(messages)-window:]
	}
	if len(messages) == 0 {
		return NewConversationText
	}

	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, capitalize(string(msg.Role))+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// FormatContext wraps retrieved context text for inclusion in the chat
// system prompt.
func FormatContext(contextText string) string {
	return fmt.Sprintf(DefaultContextTemplate, contextText)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
