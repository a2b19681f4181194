package core

import (
	"context"
	"fmt"
	"strings"

	"chat-context-service/internal/store"
)

const summaryInstruction = "Compress the latest block of the dialogue into a concise summary of 5-8 lines. " +
	"If a previous summary exists, merge it with the new block into a single up-to-date summary. " +
	"Write short plain sentences without list markers, in the working language of the conversation."

// Summarizer compresses a window of messages (and any prior summary) into a
// new rolling summary. It delegates generation to the model call and does not
// retry; a failed call surfaces as the Generator's *ModelError.
type Summarizer struct {
	generator Generator
}

func NewSummarizer(generator Generator) *Summarizer {
	return &Summarizer{generator: generator}
}

// Summarize builds the three-part summary prompt: the fixed instruction, the
// previous summary (when there is one) as a second system entry, and the
// block rendered oldest-first as "role: content" lines. The model output is
// returned untouched.
func (s *Summarizer) Summarize(ctx context.Context, previousSummary string, block []store.Message) (string, error) {
	messages := []PromptMessage{
		{Role: "system", Content: summaryInstruction},
	}
	if previousSummary != "" {
		messages = append(messages, PromptMessage{
			Role:    "system",
			Content: "Previous summary:\n" + previousSummary,
		})
	}
	messages = append(messages, PromptMessage{
		Role:    store.RoleUser,
		Content: "Dialogue:\n" + messagesToText(block),
	})

	return s.generator.Generate(ctx, messages)
}

func messagesToText(messages []store.Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(parts, "\n")
}
