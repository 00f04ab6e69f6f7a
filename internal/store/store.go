// Package store persists all per-user assistant state behind a single
// repository interface with interchangeable backends: flat JSON files
// (the default), in-memory (tests) and PostgreSQL.
package store

import (
	"context"
	"errors"

	"github.com/austinbrady/Assist-sub001/internal/activity"
	"github.com/austinbrady/Assist-sub001/internal/persona"
	"github.com/austinbrady/Assist-sub001/internal/values"
)

// ErrNotFound marks a lookup for a record that does not exist. Load
// operations that can treat absence as empty state return nil instead.
var ErrNotFound = errors.New("store: not found")

// UserStore is the repository for all per-user state.
//
// Listing operations skip individual unreadable or corrupt records and
// return whatever loaded: a user with only corrupt files is
// indistinguishable from a brand-new user.
type UserStore interface {
	SaveConversation(ctx context.Context, rec *activity.ConversationRecord) error
	GetConversation(ctx context.Context, username, conversationID string) (*activity.ConversationRecord, error)
	// RecentConversations returns up to limit records, most recently
	// modified first.
	RecentConversations(ctx context.Context, username string, limit int) ([]*activity.ConversationRecord, error)
	AllConversations(ctx context.Context, username string) ([]*activity.ConversationRecord, error)

	// Activity log: bounded, oldest entries evicted first.
	AppendActivity(ctx context.Context, username string, entry activity.Entry) error
	ActivityLog(ctx context.Context, username string) (*activity.Log, error)

	ListUsers(ctx context.Context) ([]string, error)

	// Value system; Load returns nil, nil when none exists.
	LoadValueSystem(ctx context.Context, username string) (*values.System, error)
	SaveValueSystem(ctx context.Context, username string, sys *values.System) error

	// Character; Load returns nil, nil when none exists.
	LoadCharacter(ctx context.Context, username string) (*persona.Character, error)
	SaveCharacter(ctx context.Context, ch *persona.Character) error
}
