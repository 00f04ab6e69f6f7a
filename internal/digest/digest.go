// Package digest periodically re-analyzes every known user and pushes
// a suggestion summary to the connected chat platforms.
package digest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/gateway"
	"github.com/austinbrady/Assist-sub001/internal/pattern"
)

// Source supplies users and their suggestions.
type Source interface {
	Users(ctx context.Context) ([]string, error)
	SuggestionsFor(ctx context.Context, username string) []pattern.Suggestion
}

// Broadcaster delivers the digest to the platforms.
type Broadcaster interface {
	Send(ctx context.Context, msg *gateway.BroadcastMessage) error
}

// Digest runs the periodic suggestion sweep.
type Digest struct {
	source      Source
	broadcaster Broadcaster
	interval    time.Duration
	mu          sync.Mutex
	lastRun     time.Time
	logger      *zap.Logger
}

// New creates a Digest. interval <= 0 disables Start.
func New(source Source, broadcaster Broadcaster, interval time.Duration, logger *zap.Logger) *Digest {
	return &Digest{
		source:      source,
		broadcaster: broadcaster,
		interval:    interval,
		logger:      logger,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (d *Digest) Start(ctx context.Context) {
	if d.interval <= 0 {
		d.logger.Info("suggestion digest disabled")
		return
	}
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("suggestion digest started",
		zap.Duration("interval", d.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep: every user with surfaced suggestions
// contributes a section to one broadcast. Returns the number of users
// included.
func (d *Digest) RunOnce(ctx context.Context) int {
	d.mu.Lock()
	d.lastRun = time.Now()
	d.mu.Unlock()

	users, err := d.source.Users(ctx)
	if err != nil {
		d.logger.Warn("digest user listing failed", zap.Error(err))
		return 0
	}

	var b strings.Builder
	included := 0
	for _, user := range users {
		suggestions := d.source.SuggestionsFor(ctx, user)
		if len(suggestions) == 0 {
			continue
		}
		included++
		fmt.Fprintf(&b, "%s:\n", user)
		for _, s := range suggestions {
			fmt.Fprintf(&b, "  - %s: %s\n", s.Title, s.Message)
		}
	}

	if included == 0 {
		d.logger.Debug("digest sweep found nothing to report")
		return 0
	}

	msg := &gateway.BroadcastMessage{
		Type:    gateway.BroadcastSuggestionDigest,
		Title:   "Suggestion digest",
		Content: strings.TrimRight(b.String(), "\n"),
	}
	if err := d.broadcaster.Send(ctx, msg); err != nil {
		d.logger.Warn("digest broadcast failed", zap.Error(err))
		return included
	}

	d.logger.Info("suggestion digest sent", zap.Int("users", included))
	return included
}

// LastRun returns when the previous sweep started.
func (d *Digest) LastRun() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRun
}
