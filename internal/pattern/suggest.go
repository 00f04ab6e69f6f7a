package pattern

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// suggestionThreshold is the minimum confidence for a pattern to be
// surfaced. Patterns below it are dropped silently.
const suggestionThreshold = 0.6

// DefaultCacheTTL is how long a user's suggestion list stays valid.
const DefaultCacheTTL = time.Hour

// Suggestion is a proactive suggestion surfaced to the chat UI.
type Suggestion struct {
	SuggestionID string         `json:"suggestion_id"`
	Type         Type           `json:"type"`
	Title        string         `json:"title"`
	Message      string         `json:"message"`
	Action       string         `json:"action"`
	ActionData   map[string]any `json:"action_data,omitempty"`
	Confidence   float64        `json:"confidence"`
	CreatedAt    time.Time      `json:"created_at"`
}

// CachedSuggestions is the per-user cache record. The whole record is
// replaced on re-analysis: there is no partial invalidation.
type CachedSuggestions struct {
	AnalyzedAt  time.Time    `json:"analyzed_at"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Suggester turns detected patterns into cached suggestions.
type Suggester struct {
	detector *Detector
	cache    Cache
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewSuggester creates a Suggester. ttl <= 0 uses DefaultCacheTTL.
func NewSuggester(detector *Detector, cache Cache, ttl time.Duration, logger *zap.Logger) *Suggester {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Suggester{
		detector: detector,
		cache:    cache,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// SuggestionsFor returns the user's suggestions, reusing the cached
// list when it is younger than the TTL. Cache failures are logged and
// treated as misses; this path never errors.
func (s *Suggester) SuggestionsFor(ctx context.Context, username string) []Suggestion {
	now := s.now()

	cached, err := s.cache.Get(ctx, username)
	if err != nil {
		s.logger.Warn("suggestion cache read failed",
			zap.String("user", username), zap.Error(err))
	} else if cached != nil && now.Sub(cached.AnalyzedAt) < s.ttl {
		return cached.Suggestions
	}

	patterns := s.detector.Analyze(ctx, username)
	suggestions := buildSuggestions(patterns, now)

	entry := &CachedSuggestions{AnalyzedAt: now, Suggestions: suggestions}
	if err := s.cache.Put(ctx, username, entry, s.ttl); err != nil {
		s.logger.Warn("suggestion cache write failed",
			zap.String("user", username), zap.Error(err))
	}
	return suggestions
}

// buildSuggestions converts each pattern at or above the confidence
// threshold 1:1 into a suggestion.
func buildSuggestions(patterns []Pattern, now time.Time) []Suggestion {
	var out []Suggestion
	for _, p := range patterns {
		if p.Confidence < suggestionThreshold {
			continue
		}
		sug := Suggestion{
			SuggestionID: uuid.New().String(),
			Type:         p.Type,
			Confidence:   p.Confidence,
			CreatedAt:    now,
			ActionData: map[string]any{
				"keyword":   p.Keyword,
				"frequency": p.Frequency,
			},
		}
		switch p.Type {
		case TypeTemporal:
			sug.Title = "Recurring timing noticed"
			sug.Message = fmt.Sprintf("You bring things up around %q a lot. Want a standing reminder?", p.Keyword)
			sug.Action = "create_reminder"
		case TypeProblem:
			sug.Title = fmt.Sprintf("You keep running into %q", p.Keyword)
			sug.Message = fmt.Sprintf("%q has come up %d times when you needed help. I could build a small tool for it.", p.Keyword, p.Frequency)
			sug.Action = "create_app"
		case TypeGoal:
			sug.Title = "A goal keeps coming up"
			sug.Message = fmt.Sprintf("You've mentioned this goal %d times: %q. Want a reminder to work on it?", p.Frequency, p.Keyword)
			sug.Action = "create_reminder"
		case TypeWorkflow:
			sug.Title = "Repeated workflow detected"
			sug.Message = fmt.Sprintf("You've repeated the same sequence of steps %d times. I can automate it.", p.Frequency)
			sug.Action = "create_automation"
		}
		out = append(out, sug)
	}
	return out
}
