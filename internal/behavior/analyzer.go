package behavior

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/activity"
)

// Source supplies the stored history the analyzer scans. Implementations
// skip unreadable individual files and return whatever loaded.
type Source interface {
	AllConversations(ctx context.Context, username string) ([]*activity.ConversationRecord, error)
	ActivityLog(ctx context.Context, username string) (*activity.Log, error)
}

// Analyzer derives a BehaviorAnalysis from a user's full history.
// The scan is naive case-insensitive substring counting over every
// message; there is no word-boundary handling.
type Analyzer struct {
	source Source
	logger *zap.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(source Source, logger *zap.Logger) *Analyzer {
	return &Analyzer{source: source, logger: logger}
}

// lateNightRatioThreshold flags irregular hours once this share of
// activity falls between 23:00 and 05:00.
const lateNightRatioThreshold = 0.4

// lateNightMinEntries is the minimum activity volume before the
// late-night ratio is trusted.
const lateNightMinEntries = 10

// Analyze scans all stored conversations for the user and produces an
// Analysis. A total source failure is returned as an error; callers
// fall back to Neutral().
func (a *Analyzer) Analyze(ctx context.Context, username string) (*Analysis, error) {
	convs, err := a.source.AllConversations(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load conversations for %s: %w", username, err)
	}

	corpus := buildCorpus(convs)
	analysis := AnalyzeCorpus(corpus)

	// Late-night activity scan over the audit log. Log failures do not
	// fail the whole analysis.
	log, err := a.source.ActivityLog(ctx, username)
	if err != nil {
		a.logger.Warn("activity log unavailable, skipping late-night scan",
			zap.String("user", username), zap.Error(err))
	} else if c, ok := lateNightConcern(log); ok {
		analysis.Concerns = append(analysis.Concerns, c)
		analysis.AreasOfFocus = append(analysis.AreasOfFocus, "sleep schedule")
		analysis.RiskLevel = riskLevel(analysis.Concerns)
	}

	return analysis, nil
}

// buildCorpus lowercases and concatenates every message in every
// conversation.
func buildCorpus(convs []*activity.ConversationRecord) string {
	var b strings.Builder
	for _, conv := range convs {
		for _, m := range conv.Messages {
			b.WriteString(strings.ToLower(m.Content))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// AnalyzeCorpus runs the keyword scan over an already-assembled corpus.
// Deterministic: categories are evaluated in declaration order.
func AnalyzeCorpus(corpus string) *Analysis {
	analysis := &Analysis{RiskLevel: SeverityLow}

	for _, cat := range concernCategories {
		count := countAny(corpus, cat.keywords)
		if count <= cat.threshold {
			continue
		}
		severity := SeverityMedium
		if count > cat.highThreshold {
			severity = SeverityHigh
		}
		analysis.Concerns = append(analysis.Concerns, Concern{
			Type:           cat.concernType,
			Severity:       severity,
			Description:    cat.description,
			Recommendation: cat.recommendation,
		})
		analysis.AreasOfFocus = append(analysis.AreasOfFocus, cat.focus)
	}

	for _, cat := range strengthCategories {
		if countAny(corpus, cat.keywords) > cat.threshold {
			analysis.Strengths = append(analysis.Strengths, cat.name)
		}
	}

	analysis.RiskLevel = riskLevel(analysis.Concerns)
	return analysis
}

// riskLevel applies the ordinal rule: high severity anywhere wins, more
// than two concerns means medium, otherwise low.
func riskLevel(concerns []Concern) string {
	for _, c := range concerns {
		if c.Severity == SeverityHigh {
			return SeverityHigh
		}
	}
	if len(concerns) > 2 {
		return SeverityMedium
	}
	return SeverityLow
}

// lateNightConcern computes the share of activity between 23:00 and
// 05:00 local time.
func lateNightConcern(log *activity.Log) (Concern, bool) {
	if log == nil || log.Len() < lateNightMinEntries {
		return Concern{}, false
	}
	late := 0
	for _, e := range log.Entries {
		h := e.Timestamp.Hour()
		if h >= 23 || h < 5 {
			late++
		}
	}
	ratio := float64(late) / float64(log.Len())
	if ratio <= lateNightRatioThreshold {
		return Concern{}, false
	}
	return Concern{
		Type:           "irregular_sleep",
		Severity:       SeverityMedium,
		Description:    "A large share of activity happens late at night",
		Recommendation: "Nudge toward a steadier sleep schedule",
	}, true
}

// countAny sums occurrences of every keyword in the corpus.
func countAny(corpus string, keywords []string) int {
	total := 0
	for _, kw := range keywords {
		total += strings.Count(corpus, kw)
	}
	return total
}
