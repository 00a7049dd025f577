package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhive/retrieval-engine/internal/types"
)

func TestSimilarityUnionNoColumns(t *testing.T) {
	rows, err := SimilarityUnion(context.Background(), nil, "issues", nil, types.Vector{1, 2}, "", nil, 10, 5)
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestSimilarityUnionRejectsEmptyVector(t *testing.T) {
	_, err := SimilarityUnion(context.Background(), nil, "issues", []string{"title_vec"}, types.Vector{}, "", nil, 10, 5)
	assert.Error(t, err)
}
