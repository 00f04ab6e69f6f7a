package behavior

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/activity"
)

// fakeSource feeds canned history into the analyzer.
type fakeSource struct {
	convs []*activity.ConversationRecord
	log   *activity.Log
	err   error
}

func (f *fakeSource) AllConversations(_ context.Context, _ string) ([]*activity.ConversationRecord, error) {
	return f.convs, f.err
}

func (f *fakeSource) ActivityLog(_ context.Context, _ string) (*activity.Log, error) {
	return f.log, nil
}

func convWith(messages ...string) *activity.ConversationRecord {
	rec := &activity.ConversationRecord{Username: "u", CreatedAt: time.Now()}
	for _, m := range messages {
		rec.Messages = append(rec.Messages, activity.Message{Role: "user", Content: m, Timestamp: time.Now()})
	}
	return rec
}

func TestEmptyHistoryIsNeutral(t *testing.T) {
	a := NewAnalyzer(&fakeSource{}, zap.NewNop())

	analysis, err := a.Analyze(context.Background(), "newuser")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.RiskLevel != SeverityLow {
		t.Errorf("risk = %q, want low", analysis.RiskLevel)
	}
	if len(analysis.Concerns) != 0 {
		t.Errorf("got %d concerns, want 0", len(analysis.Concerns))
	}
}

func TestSubstanceConcernEscalatesToHigh(t *testing.T) {
	// Eleven "drunk" mentions across logs pushes past the high threshold.
	msgs := make([]string, 11)
	for i := range msgs {
		msgs[i] = "got drunk again last night"
	}
	src := &fakeSource{convs: []*activity.ConversationRecord{convWith(msgs...)}}
	a := NewAnalyzer(src, zap.NewNop())

	analysis, err := a.Analyze(context.Background(), "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !analysis.HasConcern("substance_abuse") {
		t.Fatal("expected substance_abuse concern")
	}
	if analysis.Concerns[0].Severity != SeverityHigh {
		t.Errorf("severity = %q, want high", analysis.Concerns[0].Severity)
	}
	if analysis.RiskLevel != SeverityHigh {
		t.Errorf("risk = %q, want high", analysis.RiskLevel)
	}
}

func TestSubstringMatchHasNoWordBoundary(t *testing.T) {
	// "wine" inside "swine" still counts; that is the documented scan.
	corpus := strings.Repeat("the swine escaped\n", 6)
	analysis := AnalyzeCorpus(corpus)
	if !analysis.HasConcern("substance_abuse") {
		t.Error("expected naive substring counting to match embedded keywords")
	}
}

func TestRiskMediumAboveTwoConcerns(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("feeling lonely and isolated tonight\n", 2))
	sb.WriteString(strings.Repeat("so stressed and overwhelmed at work\n", 4))
	sb.WriteString(strings.Repeat("i'm broke, behind on rent, more debt\n", 2))

	analysis := AnalyzeCorpus(sb.String())
	if len(analysis.Concerns) < 3 {
		t.Fatalf("got %d concerns, want at least 3", len(analysis.Concerns))
	}
	if analysis.RiskLevel != SeverityMedium {
		t.Errorf("risk = %q, want medium", analysis.RiskLevel)
	}
}

func TestStrengthDetection(t *testing.T) {
	corpus := strings.Repeat("i'm so grateful and thankful for today\n", 4)
	analysis := AnalyzeCorpus(corpus)
	if !analysis.HasStrength("grateful_heart") {
		t.Error("expected grateful_heart strength")
	}
	if len(analysis.Concerns) != 0 {
		t.Errorf("got %d concerns, want 0", len(analysis.Concerns))
	}
}

func TestDeterministicOverRepeatedRuns(t *testing.T) {
	src := &fakeSource{convs: []*activity.ConversationRecord{
		convWith("drunk", "drunk", "drunk", "drunk", "drunk", "drunk"),
		convWith("lonely", "all alone", "no friends", "isolated"),
	}}
	a := NewAnalyzer(src, zap.NewNop())

	first, err := a.Analyze(context.Background(), "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := a.Analyze(context.Background(), "u")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestLateNightActivityConcern(t *testing.T) {
	log := activity.NewLog()
	base := time.Date(2026, 3, 1, 1, 30, 0, 0, time.Local) // 01:30
	for i := 0; i < 8; i++ {
		log.Append(activity.Entry{Type: "chat", Timestamp: base})
	}
	day := time.Date(2026, 3, 1, 14, 0, 0, 0, time.Local)
	for i := 0; i < 4; i++ {
		log.Append(activity.Entry{Type: "chat", Timestamp: day})
	}

	src := &fakeSource{log: log}
	a := NewAnalyzer(src, zap.NewNop())
	analysis, err := a.Analyze(context.Background(), "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !analysis.HasConcern("irregular_sleep") {
		t.Error("expected irregular_sleep concern at 8/12 late-night entries")
	}
}

func TestSourceFailurePropagates(t *testing.T) {
	src := &fakeSource{err: errors.New("disk gone")}
	a := NewAnalyzer(src, zap.NewNop())
	if _, err := a.Analyze(context.Background(), "u"); err == nil {
		t.Fatal("expected error on total source failure")
	}
}
