package persona

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StudyLogCap bounds the character's study log; oldest entries are
// evicted first.
const StudyLogCap = 100

// StudyEntry records one thing the character learned about its user.
type StudyEntry struct {
	Topic     string    `json:"topic"`
	Insight   string    `json:"insight"`
	Timestamp time.Time `json:"timestamp"`
}

// Character is the one-per-user persistent assistant identity. Created
// once, mutated by study-log appends and metric increments, never
// deleted by normal flow.
type Character struct {
	CharacterID   string         `json:"character_id"`
	CharacterName string         `json:"character_name"`
	Username      string         `json:"username"`
	Mission       string         `json:"mission"`
	Personality   string         `json:"personality"`
	KnowledgeBase []string       `json:"knowledge_base"`
	Goals         []string       `json:"goals"`
	StudyLog      []StudyEntry   `json:"study_log"`
	Metrics       map[string]int `json:"effectiveness_metrics"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// CharacterStore persists characters. Load returns nil, nil when no
// character exists for the user.
type CharacterStore interface {
	LoadCharacter(ctx context.Context, username string) (*Character, error)
	SaveCharacter(ctx context.Context, ch *Character) error
}

// Manager owns character lifecycle.
type Manager struct {
	store  CharacterStore
	logger *zap.Logger
}

// NewManager creates a character Manager.
func NewManager(store CharacterStore, logger *zap.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Ensure returns the user's character, creating it on first use.
// Re-creation is idempotent: an existing character is returned as-is.
func (m *Manager) Ensure(ctx context.Context, username, name string) (*Character, error) {
	existing, err := m.store.LoadCharacter(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load character for %s: %w", username, err)
	}
	if existing != nil {
		return existing, nil
	}

	if name == "" {
		name = "Companion"
	}
	now := time.Now()
	ch := &Character{
		CharacterID:   uuid.New().String(),
		CharacterName: name,
		Username:      username,
		Mission:       "Learn who " + username + " is and help them live well.",
		Personality:   "attentive, honest, steady",
		Metrics:       make(map[string]int),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := m.store.SaveCharacter(ctx, ch); err != nil {
		return nil, fmt.Errorf("save character for %s: %w", username, err)
	}
	m.logger.Info("character created",
		zap.String("user", username),
		zap.String("character", ch.CharacterID))
	return ch, nil
}

// RecordStudy appends a study entry, evicting oldest past the cap, and
// persists the character.
func (m *Manager) RecordStudy(ctx context.Context, username string, entry StudyEntry) error {
	ch, err := m.Ensure(ctx, username, "")
	if err != nil {
		return err
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	ch.StudyLog = append(ch.StudyLog, entry)
	if n := len(ch.StudyLog); n > StudyLogCap {
		ch.StudyLog = ch.StudyLog[n-StudyLogCap:]
	}
	ch.UpdatedAt = time.Now()
	if err := m.store.SaveCharacter(ctx, ch); err != nil {
		return fmt.Errorf("save character for %s: %w", username, err)
	}
	return nil
}

// BumpMetric increments an effectiveness metric and persists.
func (m *Manager) BumpMetric(ctx context.Context, username, metric string) error {
	ch, err := m.Ensure(ctx, username, "")
	if err != nil {
		return err
	}
	if ch.Metrics == nil {
		ch.Metrics = make(map[string]int)
	}
	ch.Metrics[metric]++
	ch.UpdatedAt = time.Now()
	if err := m.store.SaveCharacter(ctx, ch); err != nil {
		return fmt.Errorf("save character for %s: %w", username, err)
	}
	return nil
}

// CharacterFor returns the stored character or nil when none exists.
func (m *Manager) CharacterFor(ctx context.Context, username string) (*Character, error) {
	ch, err := m.store.LoadCharacter(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load character for %s: %w", username, err)
	}
	return ch, nil
}
