package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhive/retrieval-engine/internal/config"
	"github.com/openhive/retrieval-engine/internal/types"
)

func TestNewDisabledReturnsPassthrough(t *testing.T) {
	r, err := New(config.RerankerConfig{Enabled: false})
	require.NoError(t, err)

	candidates := []types.RerankCandidate{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	results, err := r.Rerank(context.Background(), "query", candidates)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, res := range results {
		assert.Equal(t, i, res.Index)
		assert.Equal(t, candidates[i].ID, res.ID)
	}
	// monotonically decreasing score preserves original order
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Greater(t, results[1].Score, results[2].Score)
}

func TestNewUnsupportedProvider(t *testing.T) {
	_, err := New(config.RerankerConfig{Enabled: true, Provider: "magic"})
	assert.Error(t, err)
}

func TestNewAPIRequiresBaseURL(t *testing.T) {
	_, err := New(config.RerankerConfig{Enabled: true, Provider: "api"})
	assert.Error(t, err)
}

func TestDispatchContent(t *testing.T) {
	cases := []struct {
		kind   string
		fields map[string]string
		want   string
	}{
		{"issue", map[string]string{"title": "t", "body": "b"}, "t\nb"},
		{"forum", map[string]string{"title": "t", "conversation": "c"}, "t\nc"},
		{"doc", map[string]string{"markdown": "m"}, "m"},
		{"qa", map[string]string{"question": "q", "answer": "a"}, "q\na"},
		{"keyword", map[string]string{"keyword": "k", "definition": "d"}, "k\nd"},
		{"unknown", map[string]string{"content": "raw"}, "raw"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DispatchContent(c.kind, c.fields))
	}
}

func TestSortDescending(t *testing.T) {
	results := []types.RerankResult{
		{ID: "a", Score: 0.2},
		{ID: "b", Score: 0.9},
		{ID: "c", Score: 0.5},
	}
	sortDescending(results)
	assert.Equal(t, "b", results[0].ID)
	assert.Equal(t, "c", results[1].ID)
	assert.Equal(t, "a", results[2].ID)
}
