package activity

import (
	"time"
)

// Message is a single chat message inside a conversation.
type Message struct {
	Role      string    `json:"role"` // "user" | "assistant" | "system"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationRecord is one stored conversation for a user.
// Append-only during a session, immutable once written.
type ConversationRecord struct {
	ConversationID string    `json:"conversation_id"`
	Username       string    `json:"username"`
	CreatedAt      time.Time `json:"created_at"`
	Messages       []Message `json:"messages"`
}

// UserMessages returns the content of every user-role message in order.
func (c *ConversationRecord) UserMessages() []string {
	var out []string
	for _, m := range c.Messages {
		if m.Role == "user" {
			out = append(out, m.Content)
		}
	}
	return out
}

// Entry is a generic timestamped activity record.
type Entry struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// DefaultLogCap bounds the per-user activity log.
const DefaultLogCap = 500

// Log is a bounded activity log. Appending past the cap evicts the
// oldest entries first.
type Log struct {
	Entries []Entry `json:"entries"`
	Cap     int     `json:"-"`
}

// NewLog creates an empty log with the default cap.
func NewLog() *Log {
	return &Log{Cap: DefaultLogCap}
}

// Append adds an entry, evicting oldest entries beyond the cap.
func (l *Log) Append(e Entry) {
	cap := l.Cap
	if cap <= 0 {
		cap = DefaultLogCap
	}
	l.Entries = append(l.Entries, e)
	if n := len(l.Entries); n > cap {
		l.Entries = l.Entries[n-cap:]
	}
}

// Len returns the number of retained entries.
func (l *Log) Len() int { return len(l.Entries) }
