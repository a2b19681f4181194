package core

import (
	"context"
	"errors"
	"testing"

	"chat-context-service/internal/store"
)

func TestPostMessageStoresTurnAndReplies(t *testing.T) {
	files := store.NewFileStore(t.TempDir())
	gen := &fakeGenerator{replies: []string{"hi there"}}
	svc := NewChatService(files, gen, 10)

	reply, summarized, err := svc.PostMessage(context.Background(), "1", "hello")
	if err != nil {
		t.Fatalf("post message: %v", err)
	}
	if reply != "hi there" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if summarized {
		t.Fatalf("count=2 with window=10 must not summarize")
	}

	msgs, err := svc.History("1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected user + assistant in the transcript, got %d", len(msgs))
	}
	if msgs[0].Role != store.RoleUser || msgs[0].Content != "hello" {
		t.Fatalf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].Role != store.RoleAssistant || msgs[1].Content != "hi there" {
		t.Fatalf("unexpected second message: %+v", msgs[1])
	}

	// The prompt ends with the new user text and starts with the persona.
	prompt := gen.calls[0]
	if prompt[0].Role != "system" {
		t.Fatalf("prompt must start with the persona")
	}
	if prompt[len(prompt)-1].Content != "hello" {
		t.Fatalf("prompt must end with the user text, got %+v", prompt[len(prompt)-1])
	}
}

func TestPostMessageModelErrorKeepsUserMessageDurable(t *testing.T) {
	files := store.NewFileStore(t.TempDir())
	gen := &fakeGenerator{err: &ModelError{Err: errors.New("timeout")}}
	svc := NewChatService(files, gen, 10)

	_, _, err := svc.PostMessage(context.Background(), "1", "hello")
	var modelErr *ModelError
	if !errors.As(err, &modelErr) {
		t.Fatalf("expected a model error, got %v", err)
	}

	// The user message was committed before the model call.
	if got := svc.Status("1").MessagesCount; got != 1 {
		t.Fatalf("expected count 1 after failed turn, got %d", got)
	}
	msgs, _ := svc.History("1")
	if len(msgs) != 1 || msgs[0].Role != store.RoleUser {
		t.Fatalf("expected only the user message, got %+v", msgs)
	}
}

func TestPostMessageTriggersSummarizationAtWindowMultiple(t *testing.T) {
	files := store.NewFileStore(t.TempDir())
	gen := &fakeGenerator{replies: []string{"the reply", "the summary"}}
	svc := NewChatService(files, gen, 2)

	_, summarized, err := svc.PostMessage(context.Background(), "1", "A")
	if err != nil {
		t.Fatalf("post message: %v", err)
	}
	if !summarized {
		t.Fatalf("count reaches 2 after the assistant append, summarization is due")
	}

	summary, ok := svc.Summary("1")
	if !ok || summary != "the summary" {
		t.Fatalf("expected the summarizer output, got %q ok=%v", summary, ok)
	}

	// Two model calls: the reply, then the summary.
	if len(gen.calls) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(gen.calls))
	}
}

func TestSummarizationFailureDoesNotFailTheTurn(t *testing.T) {
	files := store.NewFileStore(t.TempDir())
	gen := &fakeGenerator{replies: []string{"the reply", ""}}
	svc := NewChatService(files, gen, 2)

	reply, summarized, err := svc.PostMessage(context.Background(), "1", "A")
	if err != nil {
		t.Fatalf("the turn itself must succeed: %v", err)
	}
	if reply != "the reply" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if summarized {
		t.Fatalf("empty summarizer output must report false")
	}
	if _, ok := svc.Summary("1"); ok {
		t.Fatalf("summary must stay absent")
	}
}

func TestStatusAndReset(t *testing.T) {
	files := store.NewFileStore(t.TempDir())
	gen := &fakeGenerator{replies: []string{"reply", "summary"}}
	svc := NewChatService(files, gen, 2)

	if _, _, err := svc.PostMessage(context.Background(), "1", "A"); err != nil {
		t.Fatalf("post message: %v", err)
	}

	status := svc.Status("1")
	if status.MessagesCount != 2 || !status.HasSummary || status.WindowSize != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}

	svc.Reset("1")
	status = svc.Status("1")
	if status.MessagesCount != 0 || status.HasSummary {
		t.Fatalf("expected empty state after reset: %+v", status)
	}

	// Reset of an already-empty chat is fine.
	svc.Reset("1")
}

func TestNewChatIDTouchesNoStorage(t *testing.T) {
	files := store.NewFileStore(t.TempDir())
	svc := NewChatService(files, &fakeGenerator{}, 2)

	id := svc.NewChatID()
	if id == "" {
		t.Fatalf("expected a chat id")
	}
	if got := svc.Status(id).MessagesCount; got != 0 {
		t.Fatalf("fresh chat must be empty, got %d", got)
	}
}
