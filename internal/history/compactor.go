// Package history keeps long conversations inside the model's context
// window by summarizing older turns.
package history

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/provider"
)

// Summarizer produces a summary of prior conversation text. Satisfied
// by provider.Router.
type Summarizer interface {
	Route(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error)
}

// Compactor trims conversation history to a token budget. Older turns
// are collapsed into a summary message; the newest turns stay verbatim.
type Compactor struct {
	summarizer Summarizer
	maxTokens  int
	logger     *zap.Logger
}

// DefaultMaxTokens assumes a mid-size context window with room
// reserved for the system prompt and the response.
const DefaultMaxTokens = 24000

// New creates a Compactor. maxTokens <= 0 uses DefaultMaxTokens.
func New(summarizer Summarizer, maxTokens int, logger *zap.Logger) *Compactor {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Compactor{summarizer: summarizer, maxTokens: maxTokens, logger: logger}
}

// Compact returns msgs unchanged while they fit the budget. Once they
// exceed it, the older half is replaced with a summary turn. Falls back
// to plain truncation when summarization fails; history trimming must
// never break the chat.
func (c *Compactor) Compact(ctx context.Context, msgs []provider.Message) []provider.Message {
	if len(msgs) <= 2 || estimateTokens(msgs) <= c.maxTokens {
		return msgs
	}

	cutpoint := len(msgs) / 2
	older := msgs[:cutpoint]
	recent := msgs[cutpoint:]

	c.logger.Info("history exceeds budget, summarizing",
		zap.Int("turns", len(msgs)),
		zap.Int("tokens", estimateTokens(msgs)),
		zap.Int("budget", c.maxTokens))

	summary, err := c.summarize(ctx, older)
	if err != nil {
		c.logger.Warn("history summarization failed, truncating", zap.Error(err))
		return recent
	}

	out := make([]provider.Message, 0, len(recent)+1)
	out = append(out, provider.Message{
		Role:    "system",
		Content: "Summary of the earlier conversation:\n" + summary,
	})
	return append(out, recent...)
}

func (c *Compactor) summarize(ctx context.Context, msgs []provider.Message) (string, error) {
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "[%s]: %s\n", m.Role, m.Content)
	}

	resp, err := c.summarizer.Route(ctx, &provider.ChatRequest{
		Messages: []provider.Message{
			{Role: "user", Content: "Condense the following conversation into a short summary. Keep names, decisions, and anything the user asked to be remembered:\n\n" + b.String()},
		},
		MaxTokens: 512,
	})
	if err != nil {
		return "", err
	}
	if resp.FinishReason == "fallback" {
		return "", fmt.Errorf("no provider available for summarization")
	}
	return resp.Content, nil
}

// estimateTokens is a rough heuristic, about 4 characters per token.
func estimateTokens(msgs []provider.Message) int {
	total := 0
	for _, m := range msgs {
		n := len(m.Content)
		total += (n + 3) / 4
	}
	return total
}
