package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhive/retrieval-engine/internal/types"
)

type stubReranker struct {
	results []types.RerankResult
	err     error
}

func (s stubReranker) Rerank(ctx context.Context, query string, candidates []types.RerankCandidate) ([]types.RerankResult, error) {
	return s.results, s.err
}

func TestRerankOptionsWithDefaults(t *testing.T) {
	assert.Equal(t, 20, RerankOptions{}.withDefaults().MaxCandidates)
	assert.Equal(t, 5, RerankOptions{MaxCandidates: 5}.withDefaults().MaxCandidates)
}

func TestKindTag(t *testing.T) {
	assert.Equal(t, "issue", kindTag(KindIssue))
	assert.Equal(t, "forum", kindTag(KindForum))
	assert.Equal(t, "doc", kindTag(KindDoc))
	assert.Equal(t, "qa", kindTag(KindQA))
	assert.Equal(t, "content", kindTag(EntityKind("other")))
}

func TestRerankEmptyHits(t *testing.T) {
	out, err := Rerank(context.Background(), stubReranker{}, "q", nil, RerankOptions{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRerankTruncatesToMaxCandidates(t *testing.T) {
	hits := []Hit{
		{Kind: KindIssue, ID: 1, Fields: map[string]string{}},
		{Kind: KindIssue, ID: 2, Fields: map[string]string{}},
		{Kind: KindIssue, ID: 3, Fields: map[string]string{}},
	}
	r := stubReranker{results: []types.RerankResult{
		{ID: "1", Score: 0.9},
		{ID: "2", Score: 0.5},
	}}
	out, err := Rerank(context.Background(), r, "q", hits, RerankOptions{MaxCandidates: 2})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ID)
	require.NotNil(t, out[0].RerankScore)
	assert.Equal(t, 0.9, *out[0].RerankScore)
}

func TestRerankFiltersNonPositiveScores(t *testing.T) {
	hits := []Hit{
		{Kind: KindDoc, ID: 1, Fields: map[string]string{}},
		{Kind: KindDoc, ID: 2, Fields: map[string]string{}},
	}
	r := stubReranker{results: []types.RerankResult{
		{ID: "1", Score: 0.8},
		{ID: "2", Score: 0},
	}}
	out, err := Rerank(context.Background(), r, "q", hits, RerankOptions{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].ID)
}

func TestRerankFallsBackToC8OrderOnError(t *testing.T) {
	hits := []Hit{
		{Kind: KindDoc, ID: 1, Fields: map[string]string{}},
		{Kind: KindDoc, ID: 2, Fields: map[string]string{}},
	}
	r := stubReranker{err: assert.AnError}
	out, err := Rerank(context.Background(), r, "q", hits, RerankOptions{})
	require.NoError(t, err)
	assert.Equal(t, hits, out)
}

func TestRerankSkipsUnknownIDs(t *testing.T) {
	hits := []Hit{
		{Kind: KindDoc, ID: 1, Fields: map[string]string{}},
	}
	r := stubReranker{results: []types.RerankResult{
		{ID: "999", Score: 0.9},
	}}
	out, err := Rerank(context.Background(), r, "q", hits, RerankOptions{})
	require.NoError(t, err)
	assert.Empty(t, out)
}
