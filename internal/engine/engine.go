package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/activity"
	"github.com/austinbrady/Assist-sub001/internal/behavior"
	"github.com/austinbrady/Assist-sub001/internal/history"
	"github.com/austinbrady/Assist-sub001/internal/pattern"
	"github.com/austinbrady/Assist-sub001/internal/persona"
	"github.com/austinbrady/Assist-sub001/internal/provider"
	"github.com/austinbrady/Assist-sub001/internal/store"
	"github.com/austinbrady/Assist-sub001/internal/values"
)

// learnTimeout bounds the background learning pass that runs after each
// chat turn.
const learnTimeout = 30 * time.Second

// Engine runs the full chat pipeline: history, behavior analysis,
// personality adjustment, prompt composition, the LLM call, and the
// post-turn learning pass.
type Engine struct {
	store      store.UserStore
	router     *provider.Router
	analyzer   *behavior.Analyzer
	tracker    *values.Tracker
	characters *persona.Manager
	suggester  *pattern.Suggester
	compactor  *history.Compactor
	logger     *zap.Logger

	// learning tracks in-flight background passes so tests and shutdown
	// can wait for them.
	learning sync.WaitGroup
}

// New creates an Engine.
func New(st store.UserStore, router *provider.Router, suggester *pattern.Suggester, logger *zap.Logger) *Engine {
	return &Engine{
		store:      st,
		router:     router,
		analyzer:   behavior.NewAnalyzer(st, logger),
		tracker:    values.NewTracker(st, logger),
		characters: persona.NewManager(st, logger),
		suggester:  suggester,
		compactor:  history.New(router, 0, logger),
		logger:     logger,
	}
}

// ChatInput is one user turn.
type ChatInput struct {
	Username       string `json:"username"`
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// ChatResult is the assistant's reply plus any surfaced suggestions.
type ChatResult struct {
	ConversationID string               `json:"conversation_id"`
	Reply          string               `json:"reply"`
	Suggestions    []pattern.Suggestion `json:"suggestions,omitempty"`
}

// Chat runs one turn. Analysis failures degrade to the neutral prompt;
// provider failures degrade to the canned reply. Only input validation
// and persistence problems surface as errors.
func (e *Engine) Chat(ctx context.Context, in *ChatInput) (*ChatResult, error) {
	if in.Username == "" || in.Message == "" {
		return nil, fmt.Errorf("chat needs username and message")
	}

	if _, err := e.characters.Ensure(ctx, in.Username, ""); err != nil {
		e.logger.Warn("character ensure failed",
			zap.String("user", in.Username), zap.Error(err))
	}

	rec, err := e.loadOrStartConversation(ctx, in)
	if err != nil {
		return nil, err
	}

	prompt, analysis := e.systemPrompt(ctx, in.Username)

	turns := make([]provider.Message, 0, len(rec.Messages)+1)
	for _, m := range rec.Messages {
		turns = append(turns, provider.Message{Role: m.Role, Content: m.Content})
	}
	turns = append(turns, provider.Message{Role: "user", Content: in.Message})
	turns = e.compactor.Compact(ctx, turns)

	messages := make([]provider.Message, 0, len(turns)+1)
	messages = append(messages, provider.Message{Role: "system", Content: prompt})
	messages = append(messages, turns...)

	resp, err := e.router.Route(ctx, &provider.ChatRequest{Messages: messages})
	if err != nil {
		// The router degrades on its own; an error here is a hard bug,
		// not a provider outage. Keep the chat alive regardless.
		e.logger.Error("provider route failed", zap.Error(err))
		resp = &provider.ChatResponse{Content: provider.FallbackReply, FinishReason: "fallback"}
	}

	now := time.Now()
	rec.Messages = append(rec.Messages,
		activity.Message{Role: "user", Content: in.Message, Timestamp: now},
		activity.Message{Role: "assistant", Content: resp.Content, Timestamp: now},
	)
	if err := e.store.SaveConversation(ctx, rec); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}

	entry := activity.Entry{
		Type: "conversation",
		Data: map[string]any{
			"conversation_id": rec.ConversationID,
			"message_length":  len(in.Message),
		},
		Timestamp: now,
	}
	if err := e.store.AppendActivity(ctx, in.Username, entry); err != nil {
		e.logger.Warn("activity append failed",
			zap.String("user", in.Username), zap.Error(err))
	}

	e.learning.Add(1)
	go func() {
		defer e.learning.Done()
		lctx, cancel := context.WithTimeout(context.Background(), learnTimeout)
		defer cancel()
		e.learn(lctx, in.Username, in.Message, analysis)
	}()

	return &ChatResult{
		ConversationID: rec.ConversationID,
		Reply:          resp.Content,
		Suggestions:    e.suggester.SuggestionsFor(ctx, in.Username),
	}, nil
}

func (e *Engine) loadOrStartConversation(ctx context.Context, in *ChatInput) (*activity.ConversationRecord, error) {
	if in.ConversationID != "" {
		rec, err := e.store.GetConversation(ctx, in.Username, in.ConversationID)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("load conversation: %w", err)
		}
		// Unknown ID: start a fresh record under it rather than reject.
		return &activity.ConversationRecord{
			ConversationID: in.ConversationID,
			Username:       in.Username,
			CreatedAt:      time.Now(),
		}, nil
	}
	return &activity.ConversationRecord{
		ConversationID: uuid.New().String(),
		Username:       in.Username,
		CreatedAt:      time.Now(),
	}, nil
}

// systemPrompt runs analysis, adjustment and composition, degrading to
// the neutral prompt when analysis fails.
func (e *Engine) systemPrompt(ctx context.Context, username string) (string, *behavior.Analysis) {
	analysis, err := e.analyzer.Analyze(ctx, username)
	if err != nil {
		e.logger.Warn("behavior analysis failed, using neutral prompt",
			zap.String("user", username), zap.Error(err))
		return persona.NeutralPrompt(), behavior.Neutral()
	}
	traits := persona.Adjust(analysis)
	return persona.Compose(analysis, traits), analysis
}

// learn is the post-turn study pass: value tracking, the character's
// study log, and effectiveness metrics. Failures are logged, never
// surfaced.
func (e *Engine) learn(ctx context.Context, username, message string, analysis *behavior.Analysis) {
	if _, err := e.tracker.Observe(ctx, username, message); err != nil {
		e.logger.Warn("value tracking failed",
			zap.String("user", username), zap.Error(err))
	}

	if err := e.characters.BumpMetric(ctx, username, "conversations"); err != nil {
		e.logger.Warn("metric bump failed",
			zap.String("user", username), zap.Error(err))
	}

	if len(analysis.Concerns) > 0 {
		c := analysis.Concerns[0]
		entry := persona.StudyEntry{
			Topic:     c.Type,
			Insight:   fmt.Sprintf("conversation touched on %s (%s severity)", c.Type, c.Severity),
			Timestamp: time.Now(),
		}
		if err := e.characters.RecordStudy(ctx, username, entry); err != nil {
			e.logger.Warn("study log append failed",
				zap.String("user", username), zap.Error(err))
		}
	}
}

// WaitForLearning blocks until in-flight learning passes finish.
func (e *Engine) WaitForLearning() {
	e.learning.Wait()
}

// SuggestionsFor returns the user's current proactive suggestions.
func (e *Engine) SuggestionsFor(ctx context.Context, username string) []pattern.Suggestion {
	return e.suggester.SuggestionsFor(ctx, username)
}

// BehaviorFor returns the user's behavior analysis, neutral when the
// scan fails.
func (e *Engine) BehaviorFor(ctx context.Context, username string) *behavior.Analysis {
	analysis, err := e.analyzer.Analyze(ctx, username)
	if err != nil {
		e.logger.Warn("behavior analysis failed",
			zap.String("user", username), zap.Error(err))
		return behavior.Neutral()
	}
	return analysis
}

// TraitsFor returns the user's adjusted personality dials.
func (e *Engine) TraitsFor(ctx context.Context, username string) persona.Traits {
	return persona.Adjust(e.BehaviorFor(ctx, username))
}

// PromptFor returns the composed system prompt for inspection.
func (e *Engine) PromptFor(ctx context.Context, username string) string {
	prompt, _ := e.systemPrompt(ctx, username)
	return prompt
}

// ValuesFor returns the user's value system, empty for new users.
func (e *Engine) ValuesFor(ctx context.Context, username string) (*values.System, error) {
	return e.tracker.ValueSystemFor(ctx, username)
}

// CharacterFor returns the user's character, nil when none exists yet.
func (e *Engine) CharacterFor(ctx context.Context, username string) (*persona.Character, error) {
	return e.characters.CharacterFor(ctx, username)
}

// RecordActivity appends one entry to the user's activity log. Used by
// external integrations that feed non-chat activity into the analysis
// pipeline.
func (e *Engine) RecordActivity(ctx context.Context, username string, entry activity.Entry) error {
	if username == "" || entry.Type == "" {
		return fmt.Errorf("activity needs username and type")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	return e.store.AppendActivity(ctx, username, entry)
}

// ActivityFor returns the user's bounded activity log.
func (e *Engine) ActivityFor(ctx context.Context, username string) (*activity.Log, error) {
	return e.store.ActivityLog(ctx, username)
}

// Conversations lists the user's recent conversations.
func (e *Engine) Conversations(ctx context.Context, username string, limit int) ([]*activity.ConversationRecord, error) {
	return e.store.RecentConversations(ctx, username, limit)
}

// Conversation returns one conversation by ID.
func (e *Engine) Conversation(ctx context.Context, username, conversationID string) (*activity.ConversationRecord, error) {
	return e.store.GetConversation(ctx, username, conversationID)
}

// Users lists every known username.
func (e *Engine) Users(ctx context.Context) ([]string, error) {
	return e.store.ListUsers(ctx)
}
