package digest

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/gateway"
	"github.com/austinbrady/Assist-sub001/internal/pattern"
)

type fakeSource struct {
	users       []string
	suggestions map[string][]pattern.Suggestion
}

func (f *fakeSource) Users(ctx context.Context) ([]string, error) {
	return f.users, nil
}

func (f *fakeSource) SuggestionsFor(ctx context.Context, username string) []pattern.Suggestion {
	return f.suggestions[username]
}

type fakeBroadcaster struct {
	sent []*gateway.BroadcastMessage
}

func (f *fakeBroadcaster) Send(ctx context.Context, msg *gateway.BroadcastMessage) error {
	f.sent = append(f.sent, msg)
	return nil
}

func suggestion(title string) pattern.Suggestion {
	return pattern.Suggestion{
		SuggestionID: title,
		Title:        title,
		Message:      "noticed a pattern",
		Confidence:   0.8,
		CreatedAt:    time.Now(),
	}
}

func TestRunOnceBroadcastsOnlyUsersWithSuggestions(t *testing.T) {
	src := &fakeSource{
		users: []string{"ana", "bob"},
		suggestions: map[string][]pattern.Suggestion{
			"ana": {suggestion("Taxes keep coming up")},
		},
	}
	bc := &fakeBroadcaster{}
	d := New(src, bc, time.Minute, zap.NewNop())

	included := d.RunOnce(context.Background())
	if included != 1 {
		t.Errorf("got %d users included, want 1", included)
	}
	if len(bc.sent) != 1 {
		t.Fatalf("got %d broadcasts, want 1", len(bc.sent))
	}
	msg := bc.sent[0]
	if msg.Type != gateway.BroadcastSuggestionDigest {
		t.Errorf("got type %s, want suggestion_digest", msg.Type)
	}
	if !strings.Contains(msg.Content, "ana:") {
		t.Errorf("digest missing ana section:\n%s", msg.Content)
	}
	if strings.Contains(msg.Content, "bob") {
		t.Errorf("digest should skip users without suggestions:\n%s", msg.Content)
	}
}

func TestRunOnceQuietWhenNothingToReport(t *testing.T) {
	src := &fakeSource{users: []string{"ana"}}
	bc := &fakeBroadcaster{}
	d := New(src, bc, time.Minute, zap.NewNop())

	if got := d.RunOnce(context.Background()); got != 0 {
		t.Errorf("got %d included, want 0", got)
	}
	if len(bc.sent) != 0 {
		t.Errorf("empty sweep should not broadcast, got %d", len(bc.sent))
	}
}
