package batch

import (
	"fmt"
	"strings"

	"github.com/openhive/retrieval-engine/internal/types"
)

// baseGlobalContext is prepended to every batch system prompt (spec §4.7
// build phase step 3: "system message = BASE_GLOBAL_CONTEXT + optional
// RELEVANT_KEYWORDS + TASK_PROMPT for (op, table)").
const baseGlobalContext = "You are an assistant that enriches support content for an open-source project. " +
	"Respond with a single JSON object only, no prose, no markdown fences."

// taskPrompt returns the operation/table-specific instruction appended
// after BASE_GLOBAL_CONTEXT and any keyword injection block.
func taskPrompt(op types.OperationKind, table types.TableKind) string {
	subject := subjectName(table)
	switch op {
	case types.OpSummarize:
		extra := ""
		if table == types.TableIssues {
			extra = ` Also include "reported_version" and "stack_trace_file" when determinable from the text, else null.`
		}
		return fmt.Sprintf(
			`For each numbered %s below, write a one-to-three sentence summary.%s `+
				`Respond with {"results": [{"id": <id>, "summary": "...", ...}]}.`, subject, extra)
	case types.OpQuestions:
		return fmt.Sprintf(
			`For each numbered %s below, extract the distinct questions a reader might have answered by it, `+
				`each paired with its answer drawn only from the text. `+
				`Respond with {"results": [{"id": <id>, "question": "...", "answer": "..."}]}.`, subject)
	case types.OpQuestionsAndConcepts:
		return fmt.Sprintf(
			`For each numbered %s below, extract the distinct questions a reader might have answered by it, `+
				`each paired with its answer drawn only from the text, and any domain-specific terms worth `+
				`recording in a glossary with a one-sentence definition. `+
				`Respond with {"results": [{"id": <id>, "question": "...", "answer": "...", `+
				`"keywords": [{"keyword": "...", "definition": "..."}]}]}.`, subject)
	default:
		return ""
	}
}

func subjectName(table types.TableKind) string {
	switch table {
	case types.TableIssues:
		return "issue"
	case types.TableForumPosts:
		return "forum post"
	case types.TableDocs:
		return "document"
	case types.TableQAs:
		return "Q&A pair"
	default:
		return "item"
	}
}

// maxTokensFor returns the response budget per spec §4.7 step 3
// ("max_tokens chosen by operation").
func maxTokensFor(op types.OperationKind) int {
	switch op {
	case types.OpSummarize:
		return 2000
	case types.OpQuestions:
		return 4000
	case types.OpQuestionsAndConcepts:
		return 6000
	default:
		return 2000
	}
}

// truncateField caps a per-field string at maxChars, per spec §4.7
// ("per-field truncation caps configurable, e.g. 2000 characters").
func truncateField(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	return s[:maxChars] + "...[truncated]"
}

// EntityText is the minimal numbered-list rendering of one entity for the
// user message (spec §4.7 build phase step 3).
type EntityText struct {
	ID     int64
	Header string // e.g. "title, labels, state" summary line
	Body   string
}

func renderUserMessage(entities []EntityText) string {
	var b strings.Builder
	for i, e := range entities {
		fmt.Fprintf(&b, "%d. id=%d %s\n%s\n\n", i+1, e.ID, e.Header, e.Body)
	}
	return b.String()
}
