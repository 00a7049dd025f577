package llm

import (
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"github.com/openhive/retrieval-engine/internal/types"
)

type fakeInjector struct{ block string }

func (f fakeInjector) InjectionBlock(text string) string { return f.block }

func TestResolveModel(t *testing.T) {
	g := &Gateway{fastModel: "gpt-fast", slowModel: "gpt-slow"}
	assert.Equal(t, "gpt-fast", g.resolveModel("fast"))
	assert.Equal(t, "gpt-slow", g.resolveModel("SLOW"))
	assert.Equal(t, "gpt-4o", g.resolveModel("gpt-4o"))
}

func TestInjectKeywordsNilInjector(t *testing.T) {
	g := &Gateway{keywords: nil}
	in := []types.ChatMessage{{Role: "user", Content: "hello"}}
	out := g.injectKeywords(in)
	assert.Equal(t, in, out)
}

func TestInjectKeywordsPrependsBlockToUserMessages(t *testing.T) {
	g := &Gateway{keywords: fakeInjector{block: "### Terms"}}
	in := []types.ChatMessage{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "what is a deadlock"},
	}
	out := g.injectKeywords(in)
	assert.Equal(t, "sys", out[0].Content)
	assert.Equal(t, "### Terms\n\nwhat is a deadlock", out[1].Content)
}

func TestInjectKeywordsSkipsWhenBlockEmpty(t *testing.T) {
	g := &Gateway{keywords: fakeInjector{block: ""}}
	in := []types.ChatMessage{{Role: "user", Content: "hi"}}
	out := g.injectKeywords(in)
	assert.Equal(t, "hi", out[0].Content)
}

func TestToOpenAIMessages(t *testing.T) {
	in := []types.ChatMessage{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}}
	out := toOpenAIMessages(in)
	assert.Equal(t, []openai.ChatCompletionMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}, out)
}

func TestExtractUsageNoCacheHit(t *testing.T) {
	resp := openai.ChatCompletionResponse{
		ID: "resp-1",
		Usage: openai.Usage{PromptTokens: 100, CompletionTokens: 40},
	}
	usage := extractUsage(resp)
	assert.Equal(t, 100, usage.TokensSent)
	assert.Equal(t, 40, usage.TokensReceived)
	assert.False(t, usage.CacheHit)
}

func TestPaceConcurrentCallsDoNotRace(t *testing.T) {
	g := &Gateway{rpm: 1_000_000} // effectively no sleep, exercises the mutex path only
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.pace()
		}()
	}
	wg.Wait()
	assert.False(t, g.lastCallAt.IsZero())
}

func TestExtractUsageCacheHitZeroesReceived(t *testing.T) {
	resp := openai.ChatCompletionResponse{
		Usage: openai.Usage{
			PromptTokens:     100,
			CompletionTokens: 40,
			PromptTokensDetails: &openai.PromptTokensDetails{
				CachedTokens: 80,
			},
		},
	}
	usage := extractUsage(resp)
	assert.True(t, usage.CacheHit)
	assert.Equal(t, 0, usage.TokensReceived)
}
