package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhive/retrieval-engine/internal/types"
)

func TestCustomIDEncodeParseRoundTrip(t *testing.T) {
	cases := []CustomID{
		{Op: types.OpSummarize, Table: types.TableIssues, Index: 0, IDs: []int64{1, 2, 3}},
		{Op: types.OpQuestionsAndConcepts, Table: types.TableForumPosts, Index: 7, IDs: []int64{42}},
		{Op: types.OpQuestions, Table: types.TableDocs, Index: 12, IDs: []int64{9, 10}},
	}
	for _, c := range cases {
		encoded := c.Encode()
		decoded, err := ParseCustomID(encoded)
		require.NoError(t, err)
		assert.Equal(t, c, decoded)
	}
}

func TestParseCustomIDMalformed(t *testing.T) {
	t.Run("missing prefix", func(t *testing.T) {
		_, err := ParseCustomID("not_a_custom_id")
		assert.Error(t, err)
	})

	t.Run("missing marker", func(t *testing.T) {
		_, err := ParseCustomID("efficient_summarize_github_issues")
		assert.Error(t, err)
	})

	t.Run("unrecognized table", func(t *testing.T) {
		_, err := ParseCustomID("efficient_summarize_unknown_table_batch_0_1")
		assert.Error(t, err)
	})

	t.Run("non-numeric index", func(t *testing.T) {
		_, err := ParseCustomID("efficient_summarize_github_issues_batch_x_1,2")
		assert.Error(t, err)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		_, err := ParseCustomID("efficient_summarize_github_issues_batch_0_1,abc")
		assert.Error(t, err)
	})
}

func TestCustomIDContains(t *testing.T) {
	c := CustomID{IDs: []int64{1, 2, 3}}
	assert.True(t, c.Contains(2))
	assert.False(t, c.Contains(4))
}
