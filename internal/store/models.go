package store

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type User struct {
	ID             int64     `json:"id"`
	ExternalUserID string    `json:"external_user_id"`
	PasswordHash   string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt      time.Time `json:"created_at"`
}

// Message is one transcript record. Content is persisted with newlines
// collapsed to spaces so the log stays one line per message.
type Message struct {
	Timestamp int64  `json:"timestamp"` // unix seconds
	Role      string `json:"role"`      // "user" or "assistant"
	Content   string `json:"content"`
}

type ChatStatus struct {
	ChatID        string `json:"chat_id"`
	MessagesCount int    `json:"messages_count"`
	HasSummary    bool   `json:"has_summary"`
	WindowSize    int    `json:"window_size"`
}
