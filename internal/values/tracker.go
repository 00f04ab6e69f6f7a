package values

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Store persists per-user value systems. A missing record is
// empty-state, not an error.
type Store interface {
	LoadValueSystem(ctx context.Context, username string) (*System, error)
	SaveValueSystem(ctx context.Context, username string, sys *System) error
}

// Tracker updates a user's value system from incoming messages.
type Tracker struct {
	store  Store
	logger *zap.Logger
}

// NewTracker creates a Tracker.
func NewTracker(store Store, logger *zap.Logger) *Tracker {
	return &Tracker{store: store, logger: logger}
}

// Observe loads the user's value system, applies one message and
// persists the result.
func (t *Tracker) Observe(ctx context.Context, username, message string) (*System, error) {
	sys, err := t.store.LoadValueSystem(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load value system for %s: %w", username, err)
	}
	if sys == nil {
		sys = NewSystem()
	}

	sys.Observe(message, time.Now())

	if err := t.store.SaveValueSystem(ctx, username, sys); err != nil {
		return nil, fmt.Errorf("save value system for %s: %w", username, err)
	}
	t.logger.Debug("value system updated",
		zap.String("user", username),
		zap.Int("interactions", sys.Interactions))
	return sys, nil
}

// ValueSystemFor returns the stored value system, empty if none exists.
func (t *Tracker) ValueSystemFor(ctx context.Context, username string) (*System, error) {
	sys, err := t.store.LoadValueSystem(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load value system for %s: %w", username, err)
	}
	if sys == nil {
		sys = NewSystem()
	}
	sys.normalize()
	return sys, nil
}
