// Package history keeps the most recent exchanges between the user and the
// assistant so the agent can recall them through a tool.
package history

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultMaxSize is the number of messages kept when no size is configured
const DefaultMaxSize = 20

// Roles used by the delivery consumer and the chat loop
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleReminder  = "reminder"
)

// MessageHistory is a bounded, oldest-first list of messages.
// It is safe for concurrent use.
type MessageHistory struct {
	mu       sync.Mutex
	messages []string
	maxSize  int
	title    cases.Caser
}

// New creates an empty history holding at most maxSize messages
func New(maxSize int) *MessageHistory {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &MessageHistory{
		maxSize: maxSize,
		title:   cases.Title(language.Und),
	}
}

// Add appends a message as "Role: content", dropping the oldest message when full
func (h *MessageHistory) Add(role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, h.title.String(role)+": "+content)
	h.trim()
}

// History returns all messages separated by blank lines
func (h *MessageHistory) History() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return strings.Join(h.messages, "\n\n")
}

// Messages returns a copy of the stored messages, oldest first
func (h *MessageHistory) Messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages...)
}

// Len returns the number of stored messages
func (h *MessageHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// MaxSize returns the current capacity
func (h *MessageHistory) MaxSize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxSize
}

// SetMaxSize changes the capacity, discarding the oldest messages if needed.
// Non-positive sizes are ignored.
func (h *MessageHistory) SetMaxSize(n int) {
	if n <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maxSize = n
	h.trim()
}

func (h *MessageHistory) trim() {
	if over := len(h.messages) - h.maxSize; over > 0 {
		h.messages = append([]string(nil), h.messages[over:]...)
	}
}
