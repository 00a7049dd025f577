// Package rerank implements the C3 Reranker Service: pluggable
// cross-encoder scoring of (query, candidate) pairs.
package rerank

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/openhive/retrieval-engine/internal/config"
	"github.com/openhive/retrieval-engine/internal/types"
)

// New constructs the configured Reranker. When disabled, it returns a
// pass-through implementation so callers never need a nil check (spec §4.3:
// "If reranker is disabled in config ... returns the input order unchanged").
func New(cfg config.RerankerConfig) (types.Reranker, error) {
	if !cfg.Enabled {
		return passthrough{}, nil
	}
	switch strings.ToLower(cfg.Provider) {
	case "local":
		return NewLocal(cfg.Model), nil
	case "api":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("rerank: base_url required for api provider")
		}
		return NewAPI(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported reranker provider: %q", cfg.Provider)
	}
}

// passthrough implements types.Reranker by returning candidates in their
// original order with a neutral descending-rank score.
type passthrough struct{}

func (passthrough) Rerank(ctx context.Context, query string, candidates []types.RerankCandidate) ([]types.RerankResult, error) {
	return identityOrder(candidates), nil
}

func identityOrder(candidates []types.RerankCandidate) []types.RerankResult {
	out := make([]types.RerankResult, len(candidates))
	for i, c := range candidates {
		out[i] = types.RerankResult{Index: i, ID: c.ID, Score: 1.0 - float64(i)*1e-6}
	}
	return out
}

// sortDescending orders results by Score descending, as spec §4.3 and §8
// require ("sorted descending by score", "first item has the largest
// reranker_score").
func sortDescending(results []types.RerankResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// DispatchContent extracts the type-tagged text the reranker scores against,
// per spec §4.3's per-kind dispatcher (issue, forum, doc, qa, keyword).
func DispatchContent(kind string, fields map[string]string) string {
	switch kind {
	case "issue":
		return fields["title"] + "\n" + fields["body"]
	case "forum":
		return fields["title"] + "\n" + fields["conversation"]
	case "doc":
		return fields["markdown"]
	case "qa":
		return fields["question"] + "\n" + fields["answer"]
	case "keyword":
		return fields["keyword"] + "\n" + fields["definition"]
	default:
		return fields["content"]
	}
}
