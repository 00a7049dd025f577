package search

import (
	"context"
	"strconv"

	"github.com/openhive/retrieval-engine/internal/models/rerank"
	"github.com/openhive/retrieval-engine/internal/types"
)

// RerankOptions bounds the C9 facade: MaxCandidates truncates before the
// rerank call (spec §4.9 "truncate to rerank_max_candidates").
type RerankOptions struct {
	MaxCandidates int
}

func (o RerankOptions) withDefaults() RerankOptions {
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = 20
	}
	return o
}

func kindTag(k EntityKind) string {
	switch k {
	case KindIssue:
		return "issue"
	case KindForum:
		return "forum"
	case KindDoc:
		return "doc"
	case KindQA:
		return "qa"
	default:
		return "content"
	}
}

// Rerank implements the C9 pipeline stage after C8: convert hits to rerank
// candidates via the type-tagged content extractor, call the reranker,
// truncate to MaxCandidates, filter to positive scores, and reorder hits to
// match the reranker's ranking (spec §4.9). If reranker is unavailable
// (Rerank returns an error), falls back to the unmodified C8 order per
// spec §4.9's "falls back to C8 semantics" contract.
func Rerank(ctx context.Context, reranker types.Reranker, query string, hits []Hit, opt RerankOptions) ([]Hit, error) {
	opt = opt.withDefaults()
	if len(hits) > opt.MaxCandidates {
		hits = hits[:opt.MaxCandidates]
	}
	if len(hits) == 0 {
		return hits, nil
	}

	candidates := make([]types.RerankCandidate, len(hits))
	for i, h := range hits {
		candidates[i] = types.RerankCandidate{
			ID:      strconv.FormatInt(h.ID, 10),
			Content: rerank.DispatchContent(kindTag(h.Kind), h.Fields),
		}
	}

	results, err := reranker.Rerank(ctx, query, candidates)
	if err != nil {
		return hits, nil
	}

	byID := make(map[string]Hit, len(hits))
	for _, h := range hits {
		byID[strconv.FormatInt(h.ID, 10)] = h
	}

	out := make([]Hit, 0, len(results))
	for _, r := range results {
		if r.Score <= 0 {
			continue
		}
		h, ok := byID[r.ID]
		if !ok {
			continue
		}
		score := r.Score
		h.RerankScore = &score
		out = append(out, h)
	}
	return out, nil
}
