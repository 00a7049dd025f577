package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openhive/retrieval-engine/internal/store"
)

func TestOptionsWithDefaults(t *testing.T) {
	t.Run("zero value fills both defaults", func(t *testing.T) {
		o := Options{}.withDefaults()
		assert.Equal(t, defaultCandidatesPerColumn, o.CandidatesPerColumn)
		assert.Equal(t, defaultFinalLimit, o.FinalLimit)
	})

	t.Run("explicit values preserved", func(t *testing.T) {
		o := Options{CandidatesPerColumn: 5, FinalLimit: 2}.withDefaults()
		assert.Equal(t, 5, o.CandidatesPerColumn)
		assert.Equal(t, 2, o.FinalLimit)
	})

	t.Run("negative values replaced", func(t *testing.T) {
		o := Options{CandidatesPerColumn: -1, FinalLimit: -1}.withDefaults()
		assert.Equal(t, defaultCandidatesPerColumn, o.CandidatesPerColumn)
		assert.Equal(t, defaultFinalLimit, o.FinalLimit)
	})
}

func TestApplyThreshold(t *testing.T) {
	rows := []store.SimilarityRow{
		{ID: 1, Similarity: 0.9},
		{ID: 2, Similarity: 0.5},
		{ID: 3, Similarity: 0.2},
	}

	t.Run("nil threshold returns all rows unchanged", func(t *testing.T) {
		out := applyThreshold(rows, nil)
		assert.Equal(t, rows, out)
	})

	t.Run("filters rows at or below threshold", func(t *testing.T) {
		threshold := 0.5
		out := applyThreshold(append([]store.SimilarityRow(nil), rows...), &threshold)
		assert.Len(t, out, 1)
		assert.Equal(t, int64(1), out[0].ID)
	})
}

func TestIdsOf(t *testing.T) {
	rows := []store.SimilarityRow{{ID: 10}, {ID: 20}}
	assert.Equal(t, []int64{10, 20}, idsOf(rows))
}

func TestIdsOfEmpty(t *testing.T) {
	assert.Equal(t, []int64{}, idsOf(nil))
}

func TestSafeURL(t *testing.T) {
	assert.Equal(t, "", safeURL(""))
	assert.Equal(t, "", safeURL("javascript:alert(1)"))
	assert.Equal(t, "https://example.com/doc", safeURL("https://example.com/doc"))
}
