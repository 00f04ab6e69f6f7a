package activity

import (
	"fmt"
	"testing"
	"time"
)

func TestLogEvictsOldestFirst(t *testing.T) {
	log := &Log{Cap: 3}
	for i := 0; i < 5; i++ {
		log.Append(Entry{Type: fmt.Sprintf("e%d", i), Timestamp: time.Now()})
	}

	if log.Len() != 3 {
		t.Fatalf("got %d entries, want 3", log.Len())
	}
	if log.Entries[0].Type != "e2" {
		t.Errorf("oldest retained entry is %q, want %q", log.Entries[0].Type, "e2")
	}
	if log.Entries[2].Type != "e4" {
		t.Errorf("newest entry is %q, want %q", log.Entries[2].Type, "e4")
	}
}

func TestLogDefaultCap(t *testing.T) {
	log := NewLog()
	for i := 0; i < DefaultLogCap+10; i++ {
		log.Append(Entry{Type: "tick"})
	}
	if log.Len() != DefaultLogCap {
		t.Fatalf("got %d entries, want %d", log.Len(), DefaultLogCap)
	}
}

func TestUserMessages(t *testing.T) {
	rec := &ConversationRecord{
		Messages: []Message{
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi there"},
			{Role: "user", Content: "remind me later"},
		},
	}
	msgs := rec.UserMessages()
	if len(msgs) != 2 {
		t.Fatalf("got %d user messages, want 2", len(msgs))
	}
	if msgs[1] != "remind me later" {
		t.Errorf("got %q, want %q", msgs[1], "remind me later")
	}
}
