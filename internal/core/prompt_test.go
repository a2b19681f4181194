package core

import (
	"strings"
	"testing"

	"chat-context-service/internal/store"
)

func TestBuildChatPromptWithoutSummary(t *testing.T) {
	history := []store.Message{
		{Role: store.RoleUser, Content: "hi"},
		{Role: store.RoleAssistant, Content: "hello"},
	}
	prompt := BuildChatPrompt("how are you", "", history)

	if len(prompt) != 4 {
		t.Fatalf("expected persona + 2 history + user, got %d", len(prompt))
	}
	if prompt[0].Role != "system" {
		t.Fatalf("first entry must be the persona")
	}
	last := prompt[len(prompt)-1]
	if last.Role != store.RoleUser || last.Content != "how are you" {
		t.Fatalf("last entry must be the new user text, got %+v", last)
	}
}

func TestBuildChatPromptIncludesSummaryAsSystemContext(t *testing.T) {
	prompt := BuildChatPrompt("question", "earlier they talked about Go", nil)

	if len(prompt) != 3 {
		t.Fatalf("expected persona + summary + user, got %d", len(prompt))
	}
	if prompt[1].Role != "system" || !strings.Contains(prompt[1].Content, "earlier they talked about Go") {
		t.Fatalf("summary must ride along as a system entry, got %+v", prompt[1])
	}
}
