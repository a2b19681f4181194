package core

import "chat-context-service/internal/store"

const chatSystemInstruction = "You are a helpful assistant. Answer concisely and stay on topic. " +
	"Use the conversation summary and the recent messages below as context for your reply."

// BuildChatPrompt assembles the prompt for a regular reply: persona, the
// rolling summary when present, the recent history window, and finally the
// new user text.
func BuildChatPrompt(userText, summary string, history []store.Message) []PromptMessage {
	messages := []PromptMessage{
		{Role: "system", Content: chatSystemInstruction},
	}
	if summary != "" {
		messages = append(messages, PromptMessage{
			Role:    "system",
			Content: "Conversation summary so far:\n" + summary,
		})
	}
	for _, m := range history {
		messages = append(messages, PromptMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, PromptMessage{Role: store.RoleUser, Content: userText})
	return messages
}
