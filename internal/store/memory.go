package store

import (
	"context"
	"sort"
	"sync"

	"github.com/austinbrady/Assist-sub001/internal/activity"
	"github.com/austinbrady/Assist-sub001/internal/persona"
	"github.com/austinbrady/Assist-sub001/internal/values"
)

// MemStore is an in-memory UserStore, used by tests and the CLI.
type MemStore struct {
	mu         sync.RWMutex
	convs      map[string][]*activity.ConversationRecord // username -> append order
	activity   map[string]*activity.Log
	valueSys   map[string]*values.System
	characters map[string]*persona.Character
}

func NewMemStore() *MemStore {
	return &MemStore{
		convs:      make(map[string][]*activity.ConversationRecord),
		activity:   make(map[string]*activity.Log),
		valueSys:   make(map[string]*values.System),
		characters: make(map[string]*persona.Character),
	}
}

func (s *MemStore) SaveConversation(ctx context.Context, rec *activity.ConversationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	for i, existing := range s.convs[rec.Username] {
		if existing.ConversationID == rec.ConversationID {
			// Move to the front: updated means most recent.
			rest := append([]*activity.ConversationRecord{}, s.convs[rec.Username][:i]...)
			rest = append(rest, s.convs[rec.Username][i+1:]...)
			s.convs[rec.Username] = append([]*activity.ConversationRecord{&cp}, rest...)
			return nil
		}
	}
	s.convs[rec.Username] = append([]*activity.ConversationRecord{&cp}, s.convs[rec.Username]...)
	return nil
}

func (s *MemStore) GetConversation(ctx context.Context, username, conversationID string) (*activity.ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.convs[username] {
		if rec.ConversationID == conversationID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) RecentConversations(ctx context.Context, username string, limit int) ([]*activity.ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.convs[username]
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	out := make([]*activity.ConversationRecord, len(recs))
	for i, rec := range recs {
		cp := *rec
		out[i] = &cp
	}
	return out, nil
}

func (s *MemStore) AllConversations(ctx context.Context, username string) ([]*activity.ConversationRecord, error) {
	return s.RecentConversations(ctx, username, 0)
}

func (s *MemStore) AppendActivity(ctx context.Context, username string, entry activity.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.activity[username]
	if !ok {
		log = activity.NewLog()
		s.activity[username] = log
	}
	log.Append(entry)
	return nil
}

func (s *MemStore) ActivityLog(ctx context.Context, username string) (*activity.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.activity[username]
	if !ok {
		return activity.NewLog(), nil
	}
	cp := activity.Log{Cap: log.Cap, Entries: append([]activity.Entry{}, log.Entries...)}
	return &cp, nil
}

func (s *MemStore) ListUsers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.convs))
	for name := range s.convs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemStore) LoadValueSystem(ctx context.Context, username string) (*values.System, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sys, ok := s.valueSys[username]
	if !ok {
		return nil, nil
	}
	return sys, nil
}

func (s *MemStore) SaveValueSystem(ctx context.Context, username string, sys *values.System) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valueSys[username] = sys
	return nil
}

func (s *MemStore) LoadCharacter(ctx context.Context, username string) (*persona.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.characters[username]
	if !ok {
		return nil, nil
	}
	return ch, nil
}

func (s *MemStore) SaveCharacter(ctx context.Context, ch *persona.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters[ch.Username] = ch
	return nil
}
