package rerank

import (
	"context"
	"strings"

	"github.com/openhive/retrieval-engine/internal/types"
)

// LocalReranker scores candidates in-process with a lightweight lexical
// overlap heuristic, standing in for an in-process cross-encoder model
// (spec §4.3 "Local" provider) so the service has a dependency-free default.
type LocalReranker struct {
	modelName string
}

// NewLocal constructs a LocalReranker.
func NewLocal(modelName string) *LocalReranker {
	return &LocalReranker{modelName: modelName}
}

// Rerank scores each candidate by token-overlap with the query. It never
// errors — a local in-process scorer has no transport to fail on.
func (r *LocalReranker) Rerank(ctx context.Context, query string, candidates []types.RerankCandidate) ([]types.RerankResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	queryTokens := tokenSet(query)

	out := make([]types.RerankResult, len(candidates))
	for i, c := range candidates {
		out[i] = types.RerankResult{
			Index: i,
			ID:    c.ID,
			Score: overlapScore(queryTokens, tokenSet(c.Content)),
		}
	}
	sortDescending(out)
	return out, nil
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func overlapScore(query, doc map[string]struct{}) float64 {
	if len(query) == 0 || len(doc) == 0 {
		return 0
	}
	matches := 0
	for tok := range query {
		if _, ok := doc[tok]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}
