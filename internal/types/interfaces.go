package types

import "context"

// Embedder is the C2 embedding service contract. Empty/whitespace input
// must return (nil, nil) — no error — per spec §4.2.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	EmbedMany(ctx context.Context, texts []string) ([]Vector, error)
	Dimension() int
}

// RerankCandidate is a single (content, identity) pair offered to the
// reranker; Content is produced by the per-kind dispatcher in spec §4.3.
type RerankCandidate struct {
	ID      string
	Content string
}

// RerankResult pairs a candidate index with its cross-encoder score.
type RerankResult struct {
	Index int
	ID    string
	Score float64
}

// Reranker is the C3 cross-encoder contract. Implementations must return
// the input order unchanged on provider failure (non-fatal for search).
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]RerankResult, error)
}

// ChatMessage is a single role-tagged message sent to the LLM Gateway.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatUsage reports token accounting for a single LLM Gateway call.
type ChatUsage struct {
	TokensSent     int
	TokensReceived int
	CacheHit       bool
	ResponseID     string
	ModelID        string
}

// LLMGateway is the C4 unified synchronous LLM caller contract.
type LLMGateway interface {
	Call(ctx context.Context, messages []ChatMessage, modelAlias string) (string, error)
	CallWithUsage(ctx context.Context, messages []ChatMessage, modelAlias string) (string, ChatUsage, error)
}
