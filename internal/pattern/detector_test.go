package pattern

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/activity"
)

type fakeSource struct {
	convs []*activity.ConversationRecord
	err   error
}

func (f *fakeSource) RecentConversations(_ context.Context, _ string, limit int) ([]*activity.ConversationRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.convs) > limit {
		return f.convs[:limit], nil
	}
	return f.convs, nil
}

func conv(messages ...string) *activity.ConversationRecord {
	rec := &activity.ConversationRecord{Username: "u", CreatedAt: time.Now()}
	for _, m := range messages {
		rec.Messages = append(rec.Messages, activity.Message{Role: "user", Content: m})
	}
	return rec
}

func patternsOfType(ps []Pattern, t Type) []Pattern {
	var out []Pattern
	for _, p := range ps {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

func TestTemporalOneRecordPerMatchPerMessage(t *testing.T) {
	src := &fakeSource{convs: []*activity.ConversationRecord{
		conv("gym every monday morning", "monday again"),
	}}
	d := NewDetector(src, 0, zap.NewNop())

	temporal := patternsOfType(d.Analyze(context.Background(), "u"), TypeTemporal)

	// "monday" matches twice (two messages), "morning" once: three
	// records, no deduplication.
	if len(temporal) != 3 {
		t.Fatalf("got %d temporal records, want 3: %+v", len(temporal), temporal)
	}
	// Every "monday" record carries the total frequency.
	for _, p := range temporal {
		if p.Keyword == "monday" && p.Frequency != 2 {
			t.Errorf("monday frequency = %d, want 2", p.Frequency)
		}
	}
}

func TestProblemTokensNeedThreeOccurrences(t *testing.T) {
	src := &fakeSource{convs: []*activity.ConversationRecord{
		conv(
			"i need to fix my budget spreadsheet",
			"help me with the budget again",
			"i can't balance the budget",
			"i need new shoes",
		),
	}}
	d := NewDetector(src, 0, zap.NewNop())

	problems := patternsOfType(d.Analyze(context.Background(), "u"), TypeProblem)

	var budget *Pattern
	for i := range problems {
		if problems[i].Keyword == "budget" {
			budget = &problems[i]
		}
		if problems[i].Keyword == "shoes" {
			t.Error("token with a single occurrence must not be emitted")
		}
	}
	if budget == nil {
		t.Fatalf("expected a budget problem pattern, got %+v", problems)
	}
	if budget.Frequency != 3 {
		t.Errorf("budget frequency = %d, want 3", budget.Frequency)
	}
	if !approxEq(budget.Confidence, 0.6) {
		t.Errorf("budget confidence = %v, want 0.6 (3/5)", budget.Confidence)
	}
}

func TestProblemTopTenTieBreakByFirstOccurrence(t *testing.T) {
	// Twelve distinct tokens all at count 3; the top 10 must be the
	// first ten by first occurrence.
	words := []string{
		"alpha", "bravo", "carrot", "delta", "echo", "foxtrot",
		"golf", "hotel", "india", "juliet", "kilo", "lima",
	}
	var msgs []string
	for i := 0; i < 3; i++ {
		for _, w := range words {
			msgs = append(msgs, "i need "+w)
		}
	}
	src := &fakeSource{convs: []*activity.ConversationRecord{conv(msgs...)}}
	d := NewDetector(src, 0, zap.NewNop())

	problems := patternsOfType(d.Analyze(context.Background(), "u"), TypeProblem)
	if len(problems) != problemTopN {
		t.Fatalf("got %d problem patterns, want %d", len(problems), problemTopN)
	}
	for i, p := range problems {
		if p.Keyword != words[i] {
			t.Errorf("position %d: got %q, want %q (insertion-order tie-break)", i, p.Keyword, words[i])
		}
	}
}

func TestGoalRepeatsCounted(t *testing.T) {
	src := &fakeSource{convs: []*activity.ConversationRecord{
		conv("i want to learn spanish"),
		conv("i want to learn spanish"),
		conv("i want to learn pottery"),
	}}
	d := NewDetector(src, 0, zap.NewNop())

	goals := patternsOfType(d.Analyze(context.Background(), "u"), TypeGoal)
	if len(goals) != 1 {
		t.Fatalf("got %d goal patterns, want 1: %+v", len(goals), goals)
	}
	if goals[0].Frequency != 2 {
		t.Errorf("frequency = %d, want 2", goals[0].Frequency)
	}
	if goals[0].Keyword != "i want to learn spanish" {
		t.Errorf("keyword = %q", goals[0].Keyword)
	}
}

func TestWorkflowSequenceRepeats(t *testing.T) {
	// The same two-step sequence in three conversations.
	mk := func() *activity.ConversationRecord {
		return conv("add milk shopping list", "schedule pickup tomorrow evening")
	}
	src := &fakeSource{convs: []*activity.ConversationRecord{mk(), mk(), mk()}}
	d := NewDetector(src, 0, zap.NewNop())

	flows := patternsOfType(d.Analyze(context.Background(), "u"), TypeWorkflow)
	if len(flows) != 1 {
		t.Fatalf("got %d workflow patterns, want 1: %+v", len(flows), flows)
	}
	if flows[0].Frequency != 3 {
		t.Errorf("frequency = %d, want 3", flows[0].Frequency)
	}
	if !approxEq(flows[0].Confidence, 0.6) {
		t.Errorf("confidence = %v, want 0.6 (3/5)", flows[0].Confidence)
	}
}

func TestConfidenceInvariant(t *testing.T) {
	var msgs []string
	for i := 0; i < 20; i++ {
		msgs = append(msgs, "coffee every morning", "i need coffee")
	}
	src := &fakeSource{convs: []*activity.ConversationRecord{conv(msgs...)}}
	d := NewDetector(src, 0, zap.NewNop())

	for _, p := range d.Analyze(context.Background(), "u") {
		if p.Confidence < 0 || p.Confidence > 1 {
			t.Errorf("confidence out of range: %+v", p)
		}
		if p.Frequency <= 0 {
			t.Errorf("non-positive frequency: %+v", p)
		}
	}
}

func TestSourceFailureYieldsEmptyList(t *testing.T) {
	src := &fakeSource{err: errors.New("directory unreadable")}
	d := NewDetector(src, 0, zap.NewNop())

	if got := d.Analyze(context.Background(), "u"); len(got) != 0 {
		t.Errorf("got %d patterns on total failure, want 0", len(got))
	}
}

func approxEq(got, want float64) bool {
	diff := got - want
	return diff < 1e-9 && diff > -1e-9
}
