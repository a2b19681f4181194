package core

import (
	"context"
	"log"
	"strings"

	"chat-context-service/internal/store"
)

// ChatContext is the per-request view of one conversation: a chat id, the
// file store and the window size. It caches nothing and is recreated for
// every interaction; serialization of concurrent turns is the caller's job.
type ChatContext struct {
	files  *store.FileStore
	window int
	chatID string
}

func NewChatContext(files *store.FileStore, windowSize int, chatID string) *ChatContext {
	return &ChatContext{
		files:  files,
		window: windowSize,
		chatID: chatID,
	}
}

// HistoryWindow returns the last window-size messages, oldest first.
func (c *ChatContext) HistoryWindow() ([]store.Message, error) {
	return c.files.ReadLast(c.chatID, c.window)
}

// Summary returns the current rolling summary, false when there is none.
func (c *ChatContext) Summary() (string, bool) {
	return c.files.ReadSummary(c.chatID)
}

func (c *ChatContext) AppendUser(text string) error {
	return c.files.AppendMessage(c.chatID, store.RoleUser, text)
}

func (c *ChatContext) AppendAssistant(text string) error {
	return c.files.AppendMessage(c.chatID, store.RoleAssistant, text)
}

// DueForSummarization fires on every multiple of the window size, driven
// purely by the persisted post-append counter. A window size of zero disables
// summarization entirely.
func (c *ChatContext) DueForSummarization() bool {
	count := c.files.Count(c.chatID)
	if count <= 0 || c.window <= 0 {
		return false
	}
	return count%c.window == 0
}

// MaybeSummarize runs one summarization pass when it is due. Best effort: any
// failure (model call, empty output, summary write) leaves the current
// summary untouched and reports false. The appended messages are already
// durable by the time this runs, so a failure only costs summary freshness.
func (c *ChatContext) MaybeSummarize(ctx context.Context, summarizer *Summarizer) bool {
	if !c.DueForSummarization() {
		return false
	}

	block, err := c.HistoryWindow()
	if err != nil || len(block) == 0 {
		return false
	}
	previous, _ := c.Summary()

	newSummary, err := summarizer.Summarize(ctx, previous, block)
	if err != nil {
		log.Printf("Summarization skipped for chat %s: %v", c.chatID, err)
		return false
	}
	if strings.TrimSpace(newSummary) == "" {
		return false
	}

	if err := c.files.WriteSummary(c.chatID, newSummary); err != nil {
		log.Printf("Failed to persist summary for chat %s: %v", c.chatID, err)
		return false
	}
	return true
}
