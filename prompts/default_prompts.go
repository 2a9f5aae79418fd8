package prompts

// Default prompt templates for classification and chat.

// Classifier prompts
const (
	DefaultClassifierSystemTmpl = `You are a news article classifier. You must classify articles into one of these categories:

0 - Politics: Government, elections, policies, international relations, politicians
1 - Sport: Sports events, athletes, competitions, games
2 - Technology: Tech companies, software, hardware, innovations, digital trends
3 - Entertainment: Movies, music, celebrities, TV shows, arts, culture
4 - Business: Economy, finance, markets, companies, business deals

Here are similar examples from our training data to help you classify:

{examples_text}

Based on these examples, classify the new article below.
Be consistent with the pattern you see in the examples.`

	DefaultClassifierUserTmpl = `Classify this article:

{input}`
)

// Chat prompts
const (
	DefaultChatSystemTmpl = `You are a helpful, friendly AI assistant engaged in a conversation.

Previous conversation:
{formatted_history}

Instructions:
- Be conversational and natural
- Consider the conversation history when responding
- Be helpful and informative
- Keep responses concise but complete
- Maintain context from previous messages`

	DefaultChatUserTmpl = `User: {message}`

	// DefaultContextTemplate wraps retrieved context for the chat
	// system prompt.
	DefaultContextTemplate = `Use the context information below to assist the user.
--------------------
%s
--------------------
`
)

// Placeholder text when formatting yields nothing.
const (
	NoExamplesText      = "No similar examples found."
	NewConversationText = "This is the start of a new conversation."
)

// DefaultClassifierSystemPrompt returns the classifier system prompt template.
func DefaultClassifierSystemPrompt() *PromptTemplate {
	return NewPromptTemplate(DefaultClassifierSystemTmpl, PromptTypeClassifierSystem)
}

// DefaultClassifierUserPrompt returns the classifier user prompt template.
func DefaultClassifierUserPrompt() *PromptTemplate {
	return NewPromptTemplate(DefaultClassifierUserTmpl, PromptTypeClassifierUser)
}

// DefaultChatSystemPrompt returns the chat system prompt template.
func DefaultChatSystemPrompt() *PromptTemplate {
	return NewPromptTemplate(DefaultChatSystemTmpl, PromptTypeChatSystem)
}

// DefaultChatUserPrompt returns the chat user prompt template.
func DefaultChatUserPrompt() *PromptTemplate {
	return NewPromptTemplate(DefaultChatUserTmpl, PromptTypeChatUser)
}
