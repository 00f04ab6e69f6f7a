package provider

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// FallbackReply is returned when every provider fails. The chat keeps
// working even with no model reachable.
const FallbackReply = "I'm having trouble reaching my language model right now. " +
	"I'm still here — try me again in a moment."

// Router manages multiple LLM providers and routes requests, degrading
// to a canned reply when all of them fail.
type Router struct {
	providers map[string]Provider
	order     []string // registration order, used as the fallback chain
	defaults  string
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewRouter creates a new provider router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		providers: make(map[string]Provider),
		logger:    logger,
	}
}

// Register adds a provider. The first registered provider becomes the default.
func (r *Router) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[p.ID()]; !ok {
		r.order = append(r.order, p.ID())
	}
	r.providers[p.ID()] = p
	if r.defaults == "" {
		r.defaults = p.ID()
	}
	r.logger.Info("registered provider", zap.String("id", p.ID()), zap.String("name", p.Name()))
}

// SetDefault sets the default provider.
func (r *Router) SetDefault(providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = providerID
}

// DefaultID returns the current default provider ID.
func (r *Router) DefaultID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults
}

// Route sends a chat request through the default provider, then through
// the remaining providers in registration order. When everything fails
// it returns the canned fallback reply rather than an error.
func (r *Router) Route(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.providers) == 0 {
		r.logger.Warn("no providers registered, using fallback reply")
		return fallbackResponse(), nil
	}

	tried := make(map[string]bool)
	chain := append([]string{r.defaults}, r.order...)
	var lastErr error
	for _, id := range chain {
		if tried[id] {
			continue
		}
		tried[id] = true
		p, ok := r.providers[id]
		if !ok {
			continue
		}
		resp, err := p.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		r.logger.Warn("provider failed, trying next",
			zap.String("provider", id), zap.Error(err))
	}

	r.logger.Error("all providers failed, using fallback reply", zap.Error(lastErr))
	return fallbackResponse(), nil
}

func fallbackResponse() *ChatResponse {
	return &ChatResponse{
		Content:      FallbackReply,
		FinishReason: "fallback",
	}
}

// GetProvider returns a provider by ID.
func (r *Router) GetProvider(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// ListProviders returns all registered providers in registration order.
func (r *Router) ListProviders() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.providers[id])
	}
	return result
}

// FromConfig builds a provider from its config. Unknown types are an error.
func FromConfig(cfg ProviderConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Type {
	case "ollama":
		return NewOllamaProvider(cfg, logger), nil
	case "openai":
		return NewOpenAIProvider(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}
