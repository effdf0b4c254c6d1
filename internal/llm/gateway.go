package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adityaverma/docuchat/internal/config"
)

// gateway routes requests to named providers, retrying transient failures
// and falling back to a secondary provider when the primary is down.
type gateway struct {
	providers map[string]Provider
	primary   string
	fallback  string
	retries   int
}

func NewGateway(cfg config.LLMConfig) Gateway {
	providers := make(map[string]Provider)
	if cfg.OpenAIKey != "" {
		providers["openai"] = NewOpenAIProvider(cfg.OpenAIKey)
	}
	if cfg.AnthropicKey != "" {
		providers["anthropic"] = NewAnthropicProvider(cfg.AnthropicKey)
	}

	return &gateway{
		providers: providers,
		primary:   cfg.DefaultProvider,
		fallback:  cfg.FallbackProvider,
		retries:   cfg.MaxRetries,
	}
}

func (g *gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

func (g *gateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	name := req.Provider
	if name == "" {
		name = g.primary
	}

	resp, err := g.chatWithRetry(ctx, name, req)
	if err == nil || g.fallback == "" || g.fallback == name {
		return resp, err
	}

	slog.Warn("primary provider failed, trying fallback",
		"primary", name, "fallback", g.fallback, "error", err)
	return g.chatWithRetry(ctx, g.fallback, req)
}

// chatWithRetry retries one provider with quadratic backoff. Context
// cancellation wins over the backoff timer.
func (g *gateway) chatWithRetry(ctx context.Context, name string, req ChatRequest) (*ChatResponse, error) {
	p, err := g.Provider(name)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			slog.Debug("retrying LLM call", "provider", name, "attempt", attempt)
		}

		resp, err := p.ChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all retries exhausted for %s: %w", name, lastErr)
}

// Embed routes to the requested provider. No retry or fallback: embedding
// callers batch, and a partial batch must fail as a whole.
func (g *gateway) Embed(ctx context.Context, req EmbeddingRequest) (*EmbeddingResponse, error) {
	name := req.Provider
	if name == "" {
		name = g.primary
	}

	p, err := g.Provider(name)
	if err != nil {
		return nil, err
	}
	return p.GenerateEmbedding(ctx, req)
}
