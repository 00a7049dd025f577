package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLegalTransition(t *testing.T) {
	t.Run("self transition always legal", func(t *testing.T) {
		for _, s := range []BatchStatus{BatchCreated, BatchSent, BatchInProgress, BatchCompleted, BatchError} {
			assert.True(t, IsLegalTransition(s, s))
		}
	})

	t.Run("forward progression", func(t *testing.T) {
		assert.True(t, IsLegalTransition(BatchCreated, BatchSent))
		assert.True(t, IsLegalTransition(BatchSent, BatchInProgress))
		assert.True(t, IsLegalTransition(BatchInProgress, BatchFinalizing))
		assert.True(t, IsLegalTransition(BatchFinalizing, BatchCompleted))
		assert.True(t, IsLegalTransition(BatchCompleted, BatchProcessingFailed))
	})

	t.Run("error reachable from any in-flight state", func(t *testing.T) {
		assert.True(t, IsLegalTransition(BatchCreated, BatchError))
		assert.True(t, IsLegalTransition(BatchSent, BatchError))
		assert.True(t, IsLegalTransition(BatchInProgress, BatchError))
		assert.True(t, IsLegalTransition(BatchFinalizing, BatchError))
	})

	t.Run("no transitions out of a terminal state", func(t *testing.T) {
		assert.False(t, IsLegalTransition(BatchError, BatchSent))
		assert.False(t, IsLegalTransition(BatchProcessingFailed, BatchCreated))
	})

	t.Run("rejects skipping backward or sideways into created", func(t *testing.T) {
		assert.False(t, IsLegalTransition(BatchCompleted, BatchCreated))
		assert.False(t, IsLegalTransition(BatchSent, BatchCreated))
		assert.False(t, IsLegalTransition(BatchFailed, BatchInProgress))
	})
}

func TestQARef(t *testing.T) {
	q := QA{SourceKind: SourceIssue, SourceID: 42}
	assert.Equal(t, SourceRef{Kind: SourceIssue, ID: 42}, q.Ref())
}

func TestStringSetContains(t *testing.T) {
	s := StringSet{"bug", "p1"}
	assert.True(t, s.Contains("bug"))
	assert.False(t, s.Contains("BUG"))
	assert.False(t, s.Contains("p2"))
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "issues", Issue{}.TableName())
	assert.Equal(t, "forum_posts", ForumPost{}.TableName())
	assert.Equal(t, "docs", Doc{}.TableName())
	assert.Equal(t, "qas", QA{}.TableName())
	assert.Equal(t, "keywords", Keyword{}.TableName())
	assert.Equal(t, "synonyms", Synonym{}.TableName())
	assert.Equal(t, "batch_processes", BatchProcess{}.TableName())
	assert.Equal(t, "api_keys", ApiKey{}.TableName())
	assert.Equal(t, "chat_sessions", ChatSession{}.TableName())
	assert.Equal(t, "chat_session_entities", ChatSessionEntity{}.TableName())
}
