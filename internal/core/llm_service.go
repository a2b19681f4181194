package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"chat-context-service/internal/config"
	"chat-context-service/internal/store"
)

const defaultChatModelName = "gemini-1.5-flash-latest"

// PromptMessage is one entry of a model prompt. Role is "system", "user" or
// "assistant".
type PromptMessage struct {
	Role    string
	Content string
}

// Generator is the external completion call: it turns an ordered prompt into
// text. Every failure it returns is a *ModelError.
type Generator interface {
	Generate(ctx context.Context, messages []PromptMessage) (string, error)
}

// ModelError wraps any failure of the completion call so callers can decide
// whether the failure is swallowed (summarization) or surfaced (the reply
// itself).
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model call failed: %v", e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// LLMService implements Generator on top of the Gemini API. The client is
// created once in main and passed down by reference; Close releases it.
type LLMService struct {
	client      *genai.Client
	enableRetry bool
}

func NewLLMService() *LLMService {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}

	return &LLMService{
		client:      client,
		enableRetry: config.AppConfig.EnableRetry,
	}
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		} else {
			log.Println("GenAI client closed.")
		}
	}
}

// Generate sends the prompt to Gemini. System entries become the system
// instruction, the rest become chat history with the final user entry sent as
// the message. One retry is attempted when ENABLE_RETRY is set.
func (s *LLMService) Generate(ctx context.Context, messages []PromptMessage) (string, error) {
	instruction, history, err := splitPrompt(messages)
	if err != nil {
		return "", &ModelError{Err: err}
	}

	model := s.client.GenerativeModel(defaultChatModelName)
	if instruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(instruction)},
		}
	}

	start := time.Now()
	attempts := 1
	if s.enableRetry {
		attempts = 2
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := s.sendChat(ctx, model, history)
		if err == nil {
			log.Printf("llm_call model=%s duration_ms=%d status=ok", defaultChatModelName, time.Since(start).Milliseconds())
			return text, nil
		}
		lastErr = err
		if attempt < attempts {
			log.Printf("llm_call_failed attempt=%d retrying error=%v", attempt, err)
		}
	}

	log.Printf("llm_call model=%s duration_ms=%d status=error error=%v", defaultChatModelName, time.Since(start).Milliseconds(), lastErr)
	return "", &ModelError{Err: lastErr}
}

func (s *LLMService) sendChat(ctx context.Context, model *genai.GenerativeModel, history []*genai.Content) (string, error) {
	last := history[len(history)-1]
	chatSession := model.StartChat()
	chatSession.History = history[:len(history)-1]

	resp, err := chatSession.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response was empty")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if responseText.Len() == 0 {
		return "", fmt.Errorf("gemini response contained no text parts")
	}
	return responseText.String(), nil
}

// splitPrompt separates system entries (joined into one instruction) from the
// conversational turns, mapping "assistant" to Gemini's "model" role. The
// last conversational entry must come from the user.
func splitPrompt(messages []PromptMessage) (string, []*genai.Content, error) {
	var systemParts []string
	var history []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			systemParts = append(systemParts, msg.Content)
		case store.RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			history = append(history, &genai.Content{Role: store.RoleUser, Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}

	if len(history) == 0 {
		return "", nil, errors.New("prompt has no conversational turns")
	}
	if history[len(history)-1].Role != store.RoleUser {
		return "", nil, errors.New("last prompt entry must come from the user")
	}
	return strings.Join(systemParts, "\n\n"), history, nil
}
