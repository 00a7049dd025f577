package batch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openhive/retrieval-engine/internal/types"
)

func TestSubjectName(t *testing.T) {
	assert.Equal(t, "issue", subjectName(types.TableIssues))
	assert.Equal(t, "forum post", subjectName(types.TableForumPosts))
	assert.Equal(t, "document", subjectName(types.TableDocs))
	assert.Equal(t, "Q&A pair", subjectName(types.TableQAs))
	assert.Equal(t, "item", subjectName(types.TableKind("unknown")))
}

func TestMaxTokensFor(t *testing.T) {
	assert.Equal(t, 2000, maxTokensFor(types.OpSummarize))
	assert.Equal(t, 4000, maxTokensFor(types.OpQuestions))
	assert.Equal(t, 6000, maxTokensFor(types.OpQuestionsAndConcepts))
}

func TestTruncateField(t *testing.T) {
	assert.Equal(t, "short", truncateField("short", 100))
	assert.Equal(t, "abc...[truncated]", truncateField("abcdef", 3))
	assert.Equal(t, "no cap", truncateField("no cap", 0))
}

func TestTaskPromptIncludesExtraFieldsForIssueSummarize(t *testing.T) {
	p := taskPrompt(types.OpSummarize, types.TableIssues)
	assert.Contains(t, p, "reported_version")
	assert.Contains(t, p, "stack_trace_file")

	docPrompt := taskPrompt(types.OpSummarize, types.TableDocs)
	assert.NotContains(t, docPrompt, "reported_version")
}

func TestTaskPromptQuestionsAndConceptsMentionsKeywords(t *testing.T) {
	p := taskPrompt(types.OpQuestionsAndConcepts, types.TableForumPosts)
	assert.Contains(t, p, "keywords")
	assert.Contains(t, p, "glossary")
}

func TestRenderUserMessage(t *testing.T) {
	entities := []EntityText{
		{ID: 1, Header: "h1", Body: "b1"},
		{ID: 2, Header: "h2", Body: "b2"},
	}
	out := renderUserMessage(entities)
	assert.True(t, strings.HasPrefix(out, "1. id=1 h1\nb1\n\n"))
	assert.Contains(t, out, "2. id=2 h2\nb2\n\n")
}
