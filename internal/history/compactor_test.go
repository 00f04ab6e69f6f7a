package history

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/provider"
)

type stubSummarizer struct {
	summary string
	err     error
	calls   int
}

func (s *stubSummarizer) Route(_ context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &provider.ChatResponse{Content: s.summary, FinishReason: "stop"}, nil
}

func turn(role, content string) provider.Message {
	return provider.Message{Role: role, Content: content}
}

func TestCompactShortHistoryUntouched(t *testing.T) {
	s := &stubSummarizer{summary: "unused"}
	c := New(s, 100, zap.NewNop())

	msgs := []provider.Message{
		turn("user", "hello"),
		turn("assistant", "hi"),
		turn("user", "how are you"),
	}
	got := c.Compact(context.Background(), msgs)

	if len(got) != 3 {
		t.Fatalf("expected untouched history, got %d messages", len(got))
	}
	if s.calls != 0 {
		t.Errorf("summarizer should not be called for short history, got %d calls", s.calls)
	}
}

func TestCompactSummarizesOlderHalf(t *testing.T) {
	s := &stubSummarizer{summary: "the user likes teal"}
	c := New(s, 10, zap.NewNop())

	long := strings.Repeat("word ", 20)
	msgs := []provider.Message{
		turn("user", "my favorite color is teal"),
		turn("assistant", long),
		turn("user", long),
		turn("assistant", long),
	}
	got := c.Compact(context.Background(), msgs)

	if s.calls != 1 {
		t.Fatalf("expected 1 summarizer call, got %d", s.calls)
	}
	if got[0].Role != "system" || !strings.Contains(got[0].Content, "the user likes teal") {
		t.Errorf("expected leading summary turn, got %+v", got[0])
	}
	// Newest turns survive verbatim.
	if got[len(got)-1].Content != long {
		t.Errorf("expected last turn kept verbatim")
	}
	if len(got) != 3 {
		t.Errorf("expected summary + 2 recent turns, got %d", len(got))
	}
}

func TestCompactTruncatesWhenSummarizerFails(t *testing.T) {
	s := &stubSummarizer{err: errors.New("provider down")}
	c := New(s, 10, zap.NewNop())

	long := strings.Repeat("word ", 20)
	msgs := []provider.Message{
		turn("user", long),
		turn("assistant", long),
		turn("user", long),
		turn("assistant", long),
	}
	got := c.Compact(context.Background(), msgs)

	if len(got) != 2 {
		t.Fatalf("expected truncation to recent half, got %d messages", len(got))
	}
	if got[0].Content != long || got[0].Role != "user" {
		t.Errorf("expected recent half kept, got %+v", got[0])
	}
}

func TestCompactRejectsFallbackSummary(t *testing.T) {
	c := New(&fallbackSummarizer{}, 10, zap.NewNop())

	long := strings.Repeat("word ", 20)
	msgs := []provider.Message{
		turn("user", long),
		turn("assistant", long),
		turn("user", long),
		turn("assistant", long),
	}
	got := c.Compact(context.Background(), msgs)

	// A canned fallback reply is not a summary; truncate instead.
	if len(got) != 2 {
		t.Fatalf("expected truncation, got %d messages", len(got))
	}
	for _, m := range got {
		if strings.Contains(m.Content, provider.FallbackReply) {
			t.Errorf("fallback reply leaked into history: %+v", m)
		}
	}
}

type fallbackSummarizer struct{}

func (f *fallbackSummarizer) Route(_ context.Context, _ *provider.ChatRequest) (*provider.ChatResponse, error) {
	return &provider.ChatResponse{Content: provider.FallbackReply, FinishReason: "fallback"}, nil
}
