package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/activity"
	"github.com/austinbrady/Assist-sub001/internal/persona"
	"github.com/austinbrady/Assist-sub001/internal/values"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func record(username, id, text string) *activity.ConversationRecord {
	return &activity.ConversationRecord{
		ConversationID: id,
		Username:       username,
		CreatedAt:      time.Now(),
		Messages: []activity.Message{
			{Role: "user", Content: text, Timestamp: time.Now()},
		},
	}
}

func TestFileStoreConversationRoundTrip(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	rec := record("ana", "c1", "hello there")
	if err := s.SaveConversation(ctx, rec); err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}

	got, err := s.GetConversation(ctx, "ana", "c1")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if got.ConversationID != "c1" || got.Username != "ana" {
		t.Errorf("got %s/%s, want ana/c1", got.Username, got.ConversationID)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "hello there" {
		t.Errorf("messages did not round-trip: %+v", got.Messages)
	}
}

func TestFileStoreGetMissingConversation(t *testing.T) {
	s := newTestFileStore(t)

	_, err := s.GetConversation(context.Background(), "ana", "nope")
	if err != ErrNotFound {
		t.Errorf("got err %v, want ErrNotFound", err)
	}
}

func TestFileStoreRecentOrderAndLimit(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("c%d", i)
		if err := s.SaveConversation(ctx, record("ana", id, "msg")); err != nil {
			t.Fatalf("SaveConversation %s: %v", id, err)
		}
		// Distinct mod times so the ordering is deterministic.
		path := s.convPath("ana", id)
		mt := time.Now().Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mt, mt); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}

	recs, err := s.RecentConversations(ctx, "ana", 2)
	if err != nil {
		t.Fatalf("RecentConversations: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].ConversationID != "c2" || recs[1].ConversationID != "c1" {
		t.Errorf("got order %s, %s; want c2, c1",
			recs[0].ConversationID, recs[1].ConversationID)
	}
}

func TestFileStoreSkipsCorruptConversation(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	if err := s.SaveConversation(ctx, record("ana", "good", "fine")); err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}
	bad := s.convPath("ana", "bad")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	recs, err := s.AllConversations(ctx, "ana")
	if err != nil {
		t.Fatalf("AllConversations: %v", err)
	}
	if len(recs) != 1 || recs[0].ConversationID != "good" {
		t.Errorf("corrupt file should be skipped, got %d records", len(recs))
	}
}

func TestFileStoreCorruptStateReadsAsNewUser(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	dir := s.userDir("ana")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"activity.json", "values.json", "character.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("garbage"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	log, err := s.ActivityLog(ctx, "ana")
	if err != nil {
		t.Fatalf("ActivityLog: %v", err)
	}
	if len(log.Entries) != 0 {
		t.Errorf("corrupt activity log should be empty, got %d entries", len(log.Entries))
	}

	sys, err := s.LoadValueSystem(ctx, "ana")
	if err != nil {
		t.Fatalf("LoadValueSystem: %v", err)
	}
	if sys != nil {
		t.Errorf("corrupt value system should read as nil, got %+v", sys)
	}

	ch, err := s.LoadCharacter(ctx, "ana")
	if err != nil {
		t.Fatalf("LoadCharacter: %v", err)
	}
	if ch != nil {
		t.Errorf("corrupt character should read as nil, got %+v", ch)
	}
}

func TestFileStoreActivityLogCap(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	for i := 0; i < activity.DefaultLogCap+10; i++ {
		entry := activity.Entry{
			Type:      "conversation",
			Data:      map[string]any{"n": i},
			Timestamp: time.Now(),
		}
		if err := s.AppendActivity(ctx, "ana", entry); err != nil {
			t.Fatalf("AppendActivity %d: %v", i, err)
		}
	}

	log, err := s.ActivityLog(ctx, "ana")
	if err != nil {
		t.Fatalf("ActivityLog: %v", err)
	}
	if len(log.Entries) != activity.DefaultLogCap {
		t.Errorf("got %d entries, want %d", len(log.Entries), activity.DefaultLogCap)
	}
	// Oldest entries evicted: entry 0 is gone, the first survivor is 10.
	if n := log.Entries[0].Data["n"]; n != float64(10) {
		t.Errorf("got first entry n=%v, want 10", n)
	}
}

func TestFileStoreListUsers(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	for _, user := range []string{"zed", "ana", "ana"} {
		if err := s.SaveConversation(ctx, record(user, "c-"+user, "hi")); err != nil {
			t.Fatalf("SaveConversation: %v", err)
		}
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 || users[0] != "ana" || users[1] != "zed" {
		t.Errorf("got users %v, want [ana zed]", users)
	}
}

func TestFileStoreValueSystemRoundTrip(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	sys, err := s.LoadValueSystem(ctx, "ana")
	if err != nil {
		t.Fatalf("LoadValueSystem: %v", err)
	}
	if sys != nil {
		t.Fatalf("new user should have nil value system")
	}

	saved := values.NewSystem()
	saved.TopicMentions["health"] = 4
	saved.HighValueTopics["health"] = true
	if err := s.SaveValueSystem(ctx, "ana", saved); err != nil {
		t.Fatalf("SaveValueSystem: %v", err)
	}

	got, err := s.LoadValueSystem(ctx, "ana")
	if err != nil {
		t.Fatalf("LoadValueSystem: %v", err)
	}
	if got == nil || got.TopicMentions["health"] != 4 || !got.HighValueTopics["health"] {
		t.Errorf("value system did not round-trip: %+v", got)
	}
}

func TestFileStoreCharacterRoundTrip(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	ch := &persona.Character{
		CharacterID:   "id-1",
		CharacterName: "Companion",
		Username:      "ana",
		Metrics:       map[string]int{"conversations": 2},
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := s.SaveCharacter(ctx, ch); err != nil {
		t.Fatalf("SaveCharacter: %v", err)
	}

	got, err := s.LoadCharacter(ctx, "ana")
	if err != nil {
		t.Fatalf("LoadCharacter: %v", err)
	}
	if got == nil || got.CharacterID != "id-1" || got.Metrics["conversations"] != 2 {
		t.Errorf("character did not round-trip: %+v", got)
	}
}
