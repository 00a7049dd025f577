package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhive/retrieval-engine/internal/types"
)

func TestTokenSet(t *testing.T) {
	set := tokenSet("Hello World hello")
	assert.Len(t, set, 2)
	_, ok := set["hello"]
	assert.True(t, ok)
}

func TestOverlapScore(t *testing.T) {
	assert.Equal(t, 0.0, overlapScore(nil, tokenSet("a b")))
	assert.Equal(t, 0.0, overlapScore(tokenSet("a b"), nil))

	query := tokenSet("alpha beta")
	doc := tokenSet("alpha gamma")
	assert.Equal(t, 0.5, overlapScore(query, doc))
}

func TestLocalRerankerEmptyCandidates(t *testing.T) {
	r := NewLocal("local")
	out, err := r.Rerank(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestLocalRerankerRanksByOverlapDescending(t *testing.T) {
	r := NewLocal("local")
	candidates := []types.RerankCandidate{
		{ID: "low", Content: "unrelated text"},
		{ID: "high", Content: "database migration rollback"},
	}
	out, err := r.Rerank(context.Background(), "database migration", candidates)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "high", out[0].ID)
	assert.GreaterOrEqual(t, out[0].Score, out[1].Score)
}
