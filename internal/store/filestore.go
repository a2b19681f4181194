package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	messagesFileName   = "messages.txt"
	metaFileName       = "meta.json"
	summaryFileName    = "summary.txt"
	summaryLogFileName = "summaries.log"
)

// FileStore persists one directory per chat under a base directory:
//
//	<base>/<chatID>/messages.txt   append-only transcript, one TSV line per message
//	<base>/<chatID>/meta.json      {"messages_count": N}
//	<base>/<chatID>/summary.txt    current rolling summary
//	<base>/<chatID>/summaries.log  one line per past summary, never read back
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

type chatMeta struct {
	MessagesCount int `json:"messages_count"`
}

func (s *FileStore) chatDir(chatID string) string {
	return filepath.Join(s.baseDir, chatID)
}

func (s *FileStore) ensureChatDir(chatID string) (string, error) {
	dir := s.chatDir(chatID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create chat dir: %w", err)
	}
	return dir, nil
}

// collapseNewlines keeps the log parseable as one line per record. Lossy on
// multi-line content, which is the documented trade-off of this format.
func collapseNewlines(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}

// AppendMessage writes one transcript record and bumps the message counter.
// The counter lives in meta.json, independent from the log itself; the two
// writes are not atomic and the read-modify-write of the counter is only safe
// under the caller's per-chat serialization.
func (s *FileStore) AppendMessage(chatID, role, content string) error {
	dir, err := s.ensureChatDir(chatID)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, messagesFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open messages log: %w", err)
	}
	line := fmt.Sprintf("%d\t%s\t%s\n", time.Now().Unix(), role, collapseNewlines(content))
	if _, err = f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("failed to append message: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close messages log: %w", err)
	}

	meta := chatMeta{MessagesCount: s.Count(chatID)}
	meta.MessagesCount++
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}
	if err = os.WriteFile(filepath.Join(dir, metaFileName), payload, 0o644); err != nil {
		return fmt.Errorf("failed to write meta: %w", err)
	}
	return nil
}

// ReadLast returns the most recent limit messages, oldest first. Missing log
// means an empty result; malformed lines are skipped. limit <= 0 yields an
// empty result.
func (s *FileStore) ReadLast(chatID string, limit int) ([]Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(s.chatDir(chatID), messagesFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read messages log: %w", err)
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	messages := make([]Message, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		ts, _ := strconv.ParseInt(parts[0], 10, 64)
		messages = append(messages, Message{Timestamp: ts, Role: parts[1], Content: parts[2]})
	}
	return messages, nil
}

// Count returns the persisted message counter. An absent or unparsable
// meta.json reads as zero; the log is never re-scanned to recover the count.
func (s *FileStore) Count(chatID string) int {
	data, err := os.ReadFile(filepath.Join(s.chatDir(chatID), metaFileName))
	if err != nil {
		return 0
	}
	var meta chatMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return 0
	}
	return meta.MessagesCount
}

// ReadSummary returns the current summary, reporting whitespace-only or
// missing content as absent.
func (s *FileStore) ReadSummary(chatID string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(s.chatDir(chatID), summaryFileName))
	if err != nil {
		return "", false
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", false
	}
	return text, true
}

// WriteSummary replaces the current summary and appends a collapsed copy to
// the audit log. The two writes are independent; losing the audit line on a
// crash is acceptable since the log is never read back.
func (s *FileStore) WriteSummary(chatID, text string) error {
	dir, err := s.ensureChatDir(chatID)
	if err != nil {
		return err
	}

	if err = os.WriteFile(filepath.Join(dir, summaryFileName), []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, summaryLogFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open summaries log: %w", err)
	}
	defer f.Close()
	if _, err = f.WriteString(collapseNewlines(text) + "\n"); err != nil {
		return fmt.Errorf("failed to append summary log: %w", err)
	}
	return nil
}

func (s *FileStore) HasSummary(chatID string) bool {
	_, ok := s.ReadSummary(chatID)
	return ok
}

// Reset deletes all persisted artifacts for a chat. Best effort: missing
// files and failed deletes are ignored, and calling it on an empty chat is a
// no-op.
func (s *FileStore) Reset(chatID string) {
	dir := s.chatDir(chatID)
	for _, name := range []string{messagesFileName, summaryFileName, summaryLogFileName, metaFileName} {
		_ = os.Remove(filepath.Join(dir, name))
	}
}
