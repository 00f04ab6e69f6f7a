package pattern

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/activity"
)

// Source supplies the bounded recent-conversation window, most recently
// modified first. Implementations skip unreadable files.
type Source interface {
	RecentConversations(ctx context.Context, username string, limit int) ([]*activity.ConversationRecord, error)
}

// Detector scans recent conversations for temporal, problem, goal and
// workflow patterns.
type Detector struct {
	source Source
	window int
	logger *zap.Logger
}

// NewDetector creates a Detector. window <= 0 uses the default of 50.
func NewDetector(source Source, window int, logger *zap.Logger) *Detector {
	if window <= 0 {
		window = conversationWindowDefault
	}
	return &Detector{source: source, window: window, logger: logger}
}

// Analyze produces all detected patterns for the user. It never fails
// its caller: a total source failure yields an empty list.
func (d *Detector) Analyze(ctx context.Context, username string) []Pattern {
	convs, err := d.source.RecentConversations(ctx, username, d.window)
	if err != nil {
		d.logger.Warn("pattern scan failed, returning no patterns",
			zap.String("user", username), zap.Error(err))
		return nil
	}

	var patterns []Pattern
	patterns = append(patterns, detectTemporal(convs)...)
	patterns = append(patterns, detectProblems(convs)...)
	patterns = append(patterns, detectGoals(convs)...)
	patterns = append(patterns, detectWorkflows(convs)...)
	return patterns
}

// counter tracks counts while preserving first-occurrence order, which
// is the documented tie-break for every top-N selection.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// top returns up to n keys by count, ties broken by first occurrence.
func (c *counter) top(n int) []string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// detectTemporal emits one record per keyword match per user message,
// without deduplication. Each record carries the keyword's total
// frequency across the window.
func detectTemporal(convs []*activity.ConversationRecord) []Pattern {
	totals := newCounter()
	type hit struct{ keyword string }
	var hits []hit

	for _, conv := range convs {
		for _, msg := range conv.UserMessages() {
			lower := strings.ToLower(msg)
			for _, kw := range temporalKeywords {
				if strings.Contains(lower, kw) {
					totals.add(kw)
					hits = append(hits, hit{keyword: kw})
				}
			}
		}
	}

	patterns := make([]Pattern, 0, len(hits))
	for _, h := range hits {
		count := totals.counts[h.keyword]
		patterns = append(patterns, Pattern{
			Type:       TypeTemporal,
			Keyword:    h.keyword,
			Frequency:  count,
			Confidence: confidence(count, temporalThreshold),
		})
	}
	return patterns
}

// detectProblems accumulates token frequencies from problem-indicating
// messages across the whole window, then takes the top 10.
func detectProblems(convs []*activity.ConversationRecord) []Pattern {
	tokens := newCounter()

	for _, conv := range convs {
		for _, msg := range conv.UserMessages() {
			lower := strings.ToLower(msg)
			if !containsAny(lower, problemIndicators) {
				continue
			}
			for _, tok := range extractTokens(lower) {
				tokens.add(tok)
			}
		}
	}

	var patterns []Pattern
	for _, tok := range tokens.top(problemTopN) {
		count := tokens.counts[tok]
		if count < problemMinCount {
			continue
		}
		patterns = append(patterns, Pattern{
			Type:       TypeProblem,
			Keyword:    tok,
			Frequency:  count,
			Confidence: confidence(count, problemThreshold),
		})
	}
	return patterns
}

// detectGoals counts exact repeats of the 100-character excerpt after
// each goal lead-in.
func detectGoals(convs []*activity.ConversationRecord) []Pattern {
	goals := newCounter()

	for _, conv := range convs {
		for _, msg := range conv.UserMessages() {
			lower := strings.ToLower(msg)
			for _, lead := range goalLeadIns {
				idx := strings.Index(lower, lead)
				if idx < 0 {
					continue
				}
				end := idx + goalExcerptLen
				if end > len(lower) {
					end = len(lower)
				}
				goals.add(strings.TrimSpace(lower[idx:end]))
			}
		}
	}

	var patterns []Pattern
	for _, g := range goals.top(goalTopN) {
		count := goals.counts[g]
		if count < goalMinCount {
			continue
		}
		patterns = append(patterns, Pattern{
			Type:       TypeGoal,
			Keyword:    g,
			Frequency:  count,
			Confidence: confidence(count, goalThreshold),
		})
	}
	return patterns
}

// detectWorkflows builds, per conversation, the sequence of first-3
// token triples from action-verb messages, then counts exact sequence
// repeats across conversations.
func detectWorkflows(convs []*activity.ConversationRecord) []Pattern {
	sequences := newCounter()

	for _, conv := range convs {
		var steps []string
		for _, msg := range conv.UserMessages() {
			lower := strings.ToLower(msg)
			if !containsAnyWord(lower, actionVerbs) {
				continue
			}
			toks := extractTokens(lower)
			if len(toks) > 3 {
				toks = toks[:3]
			}
			if len(toks) > 0 {
				steps = append(steps, strings.Join(toks, "+"))
			}
		}
		if len(steps) >= 2 {
			sequences.add(strings.Join(steps, " -> "))
		}
	}

	var patterns []Pattern
	for _, seq := range sequences.top(workflowTopN) {
		count := sequences.counts[seq]
		if count < workflowMin {
			continue
		}
		patterns = append(patterns, Pattern{
			Type:       TypeWorkflow,
			Keyword:    seq,
			Frequency:  count,
			Confidence: confidence(count, workflowThreshold),
		})
	}
	return patterns
}

// extractTokens returns lowercase alphabetic tokens of length >= 3,
// excluding stopwords, in message order.
func extractTokens(lower string) []string {
	var tokens []string
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// containsAnyWord matches whole words only, so "call" does not fire on
// "locally".
func containsAnyWord(s string, words []string) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}
