package core

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"chat-context-service/internal/store"
)

// ChatService runs complete conversation turns against the file store and the
// model. It serializes all mutations per chat id with an in-process lock, so
// the store's counter read-modify-write and the summary read-then-write never
// race within one process. Cross-process writers to the same chat remain
// unsupported.
type ChatService struct {
	files      *store.FileStore
	generator  Generator
	summarizer *Summarizer
	windowSize int

	mu        sync.Mutex
	chatLocks map[string]*sync.Mutex
}

func NewChatService(files *store.FileStore, generator Generator, windowSize int) *ChatService {
	return &ChatService{
		files:      files,
		generator:  generator,
		summarizer: NewSummarizer(generator),
		windowSize: windowSize,
		chatLocks:  make(map[string]*sync.Mutex),
	}
}

func (s *ChatService) chatLock(chatID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.chatLocks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		s.chatLocks[chatID] = lock
	}
	return lock
}

// NewChatID mints a fresh conversation id. No storage is touched; the
// conversation comes into existence on its first append.
func (s *ChatService) NewChatID() string {
	return uuid.NewString()
}

// PostMessage handles one turn: build the prompt from summary plus window,
// persist the user message, call the model, persist the reply, then attempt
// summarization. The user message is durable before the model is called, so
// a model failure loses nothing; it surfaces to the caller while the
// transcript keeps the user text. Summarization failures are invisible here,
// reported only through the summarized flag.
func (s *ChatService) PostMessage(ctx context.Context, chatID, content string) (string, bool, error) {
	lock := s.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	cc := NewChatContext(s.files, s.windowSize, chatID)

	history, err := cc.HistoryWindow()
	if err != nil {
		log.Printf("Error reading history for chat %s: %v. Proceeding without history.", chatID, err)
		history = nil
	}
	summary, _ := cc.Summary()
	prompt := BuildChatPrompt(content, summary, history)

	if err := cc.AppendUser(content); err != nil {
		return "", false, fmt.Errorf("failed to store user message: %w", err)
	}

	reply, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", false, fmt.Errorf("failed to get LLM completion: %w", err)
	}

	if err := cc.AppendAssistant(reply); err != nil {
		return "", false, fmt.Errorf("failed to store assistant message: %w", err)
	}

	summarized := cc.MaybeSummarize(ctx, s.summarizer)
	return reply, summarized, nil
}

// History returns the current window of a chat, oldest first.
func (s *ChatService) History(chatID string) ([]store.Message, error) {
	return NewChatContext(s.files, s.windowSize, chatID).HistoryWindow()
}

func (s *ChatService) Summary(chatID string) (string, bool) {
	return s.files.ReadSummary(chatID)
}

func (s *ChatService) Status(chatID string) store.ChatStatus {
	return store.ChatStatus{
		ChatID:        chatID,
		MessagesCount: s.files.Count(chatID),
		HasSummary:    s.files.HasSummary(chatID),
		WindowSize:    s.windowSize,
	}
}

// Reset wipes all persisted state for a chat. Best effort and idempotent.
func (s *ChatService) Reset(chatID string) {
	lock := s.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()
	s.files.Reset(chatID)
}
