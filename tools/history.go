package tools

import "github.com/teranos/smolassistant/history"

// History lets the agent read recent exchanges with the user
type History struct {
	history *history.MessageHistory
}

// NewHistory creates the history tool over h
func NewHistory(h *history.MessageHistory) *History {
	return &History{history: h}
}

// GetMessageHistory returns the stored messages, oldest first
func (h *History) GetMessageHistory() string {
	return h.history.History()
}
