// Package llm implements the C4 LLM Gateway: a unified synchronous caller
// with retries, RPM pacing, token accounting, and optional keyword-context
// injection (spec §4.4), grounded on the teacher's models/chat provider
// shape (OllamaChat.Chat building a request, extracting usage, returning
// types.ChatResponse).
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/openhive/retrieval-engine/internal/config"
	"github.com/openhive/retrieval-engine/internal/logger"
	"github.com/openhive/retrieval-engine/internal/types"
)

// KeywordInjector supplies the "Relevant Specialized Terminology" block for
// a user message (C5, injected via Gateway.Call per spec §4.4).
// *keyword.Service satisfies it; New accepts nil to disable injection.
type KeywordInjector interface {
	InjectionBlock(text string) string
}

// Gateway is the C4 LLM Gateway. One process-wide instance should be built
// at startup and shared by every caller (workers, batch, chat).
type Gateway struct {
	client     *openai.Client
	fastModel  string
	slowModel  string
	rpm        int
	maxRetries int
	retryDelay time.Duration
	keywords   KeywordInjector

	paceMu     sync.Mutex
	lastCallAt time.Time
}

// New constructs a Gateway from config. keywords may be nil to disable
// terminology injection.
func New(cfg config.LLMConfig, keywords KeywordInjector) *Gateway {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Gateway{
		client:     openai.NewClientWithConfig(clientCfg),
		fastModel:  cfg.FastModel,
		slowModel:  cfg.SlowModel,
		rpm:        cfg.RPM,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		keywords:   keywords,
	}
}

// resolveModel maps a logical alias ("fast"/"slow") to a concrete model name.
func (g *Gateway) resolveModel(alias string) string {
	switch strings.ToLower(alias) {
	case "fast":
		return g.fastModel
	case "slow":
		return g.slowModel
	default:
		return alias
	}
}

// pace sleeps out the remainder of 60/RPM seconds since the last call, per
// spec §4.4's rate pacing contract. Gateway is shared across concurrent HTTP
// requests and worker loops, so lastCallAt is guarded by paceMu; the lock is
// held across the sleep since pacing is a global RPM budget, not a per-call one.
func (g *Gateway) pace() {
	if g.rpm <= 0 {
		return
	}
	g.paceMu.Lock()
	defer g.paceMu.Unlock()

	minInterval := time.Duration(float64(time.Minute) / float64(g.rpm))
	if elapsed := time.Since(g.lastCallAt); elapsed < minInterval {
		time.Sleep(minInterval - elapsed)
	}
	g.lastCallAt = time.Now()
}

// injectKeywords rewrites user messages to prepend the keyword block, per
// spec §4.4's optional keyword injection.
func (g *Gateway) injectKeywords(messages []types.ChatMessage) []types.ChatMessage {
	if g.keywords == nil {
		return messages
	}
	out := make([]types.ChatMessage, len(messages))
	for i, m := range messages {
		if m.Role == "user" {
			if block := g.keywords.InjectionBlock(m.Content); block != "" {
				m.Content = block + "\n\n" + m.Content
			}
		}
		out[i] = m
	}
	return out
}

func toOpenAIMessages(messages []types.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// Call implements types.LLMGateway, discarding usage information.
func (g *Gateway) Call(ctx context.Context, messages []types.ChatMessage, modelAlias string) (string, error) {
	text, _, err := g.CallWithUsage(ctx, messages, modelAlias)
	return text, err
}

// CallWithUsage implements types.LLMGateway. Any failed attempt (a transport
// error or a response with no choices) is retried up to maxRetries more
// times, with retryDelay between attempts; a final failure returns a non-nil
// error, and the caller decides its severity.
func (g *Gateway) CallWithUsage(
	ctx context.Context, messages []types.ChatMessage, modelAlias string,
) (string, types.ChatUsage, error) {
	model := g.resolveModel(modelAlias)
	finalMessages := g.injectKeywords(messages)
	oaMessages := toOpenAIMessages(finalMessages)

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(g.retryDelay)
		}
		g.pace()

		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:          model,
			Messages:       oaMessages,
			ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		})
		if err != nil {
			lastErr = err
			logger.Warnf(ctx, "llm: call attempt %d/%d failed: %v", attempt+1, g.maxRetries+1, err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("llm: empty choices from model %s", model)
			continue
		}

		usage := extractUsage(resp)
		usage.ModelID = model
		usage.ResponseID = resp.ID
		return resp.Choices[0].Message.Content, usage, nil
	}
	return "", types.ChatUsage{}, fmt.Errorf("llm: all %d attempts failed: %w", g.maxRetries+1, lastErr)
}

// extractUsage derives token accounting from the provider response. A cache
// hit is detected only from PromptTokensDetails.CachedTokens > 0; no explicit
// cache-hit flag in the response is read. On a cache hit TokensReceived is 0.
func extractUsage(resp openai.ChatCompletionResponse) types.ChatUsage {
	cacheHit := false
	if resp.Usage.PromptTokensDetails != nil && resp.Usage.PromptTokensDetails.CachedTokens > 0 {
		cacheHit = true
	}

	tokensReceived := resp.Usage.CompletionTokens
	if cacheHit {
		tokensReceived = 0
	}

	return types.ChatUsage{
		TokensSent:     resp.Usage.PromptTokens,
		TokensReceived: tokensReceived,
		CacheHit:       cacheHit,
	}
}
