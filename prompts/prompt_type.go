// Package prompts provides prompt templates and formatting helpers for
// classification and chat.
package prompts

// PromptType represents the type/category of a prompt.
type PromptType string

const (
	// Classification
	PromptTypeClassifierSystem PromptType = "classifier_system"
	PromptTypeClassifierUser   PromptType = "classifier_user"

	// Conversation
	PromptTypeChatSystem PromptType = "chat_system"
	PromptTypeChatUser   PromptType = "chat_user"

	// Custom prompts
	PromptTypeCustom PromptType = "custom"
)
