package batch

import (
	"context"

	"gorm.io/gorm"

	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/types"
)

// sourceKindFor maps a batch TableKind to the SourceKind a QA row against
// that table would carry.
func sourceKindFor(table types.TableKind) types.SourceKind {
	switch table {
	case types.TableIssues:
		return types.SourceIssue
	case types.TableForumPosts:
		return types.SourceForum
	case types.TableDocs:
		return types.SourceDoc
	default:
		return ""
	}
}

// candidateRow is the raw-query projection used to build an EntityText
// without needing the full entity struct (batch candidates only need a
// header/body pair, never the embedding columns).
type candidateRow struct {
	ID     int64
	Header string
	Body   string
}

// Candidates selects up to limit entities missing op's target artifact for
// table (spec §4.7 build phase step 1): rows missing llm_summary for
// summarize, or rows with a complete summary but no QA rows yet for the
// question-extracting operations.
func Candidates(ctx context.Context, db *gorm.DB, op types.OperationKind, table types.TableKind, limit int) ([]EntityText, error) {
	var sql string
	switch table {
	case types.TableIssues:
		switch op {
		case types.OpSummarize:
			sql = `SELECT id, title AS header, body AS body FROM issues WHERE llm_summary IS NULL LIMIT ?`
		default:
			sql = `SELECT i.id, i.title AS header, i.body AS body FROM issues i
				WHERE i.llm_summary IS NOT NULL
				AND NOT EXISTS (SELECT 1 FROM qas q WHERE q.source_kind = 'ISSUE' AND q.source_id = i.id)
				LIMIT ?`
		}
	case types.TableForumPosts:
		switch op {
		case types.OpSummarize:
			sql = `SELECT id, title AS header, conversation AS body FROM forum_posts WHERE llm_summary IS NULL LIMIT ?`
		default:
			sql = `SELECT f.id, f.title AS header, f.conversation AS body FROM forum_posts f
				WHERE f.llm_summary IS NOT NULL
				AND NOT EXISTS (SELECT 1 FROM qas q WHERE q.source_kind = 'FORUM' AND q.source_id = f.id)
				LIMIT ?`
		}
	case types.TableDocs:
		switch op {
		case types.OpSummarize:
			sql = `SELECT id, url AS header, markdown AS body FROM docs WHERE llm_summary IS NULL LIMIT ?`
		default:
			sql = `SELECT d.id, d.url AS header, d.markdown AS body FROM docs d
				WHERE d.llm_summary IS NOT NULL
				AND NOT EXISTS (SELECT 1 FROM qas q WHERE q.source_kind = 'DOC' AND q.source_id = d.id)
				LIMIT ?`
		}
	default:
		return nil, errors.New(errors.KindInternal, "batch: unsupported table kind "+string(table))
	}

	var rows []candidateRow
	if err := db.WithContext(ctx).Raw(sql, limit).Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.KindTransient, "batch: select candidates", err)
	}

	out := make([]EntityText, len(rows))
	for i, r := range rows {
		out[i] = EntityText{ID: r.ID, Header: r.Header, Body: r.Body}
	}
	return out, nil
}

// Partition splits entities into batches of at most size entities each
// (spec §4.7 build phase step 2).
func Partition(entities []EntityText, size int) [][]EntityText {
	if size <= 0 {
		size = 100
	}
	var out [][]EntityText
	for i := 0; i < len(entities); i += size {
		end := i + size
		if end > len(entities) {
			end = len(entities)
		}
		out = append(out, entities[i:end])
	}
	return out
}

func idList(entities []EntityText) []int64 {
	ids := make([]int64, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	return ids
}

func concatenatedText(entities []EntityText) string {
	s := ""
	for _, e := range entities {
		s += e.Header + " " + e.Body + " "
	}
	return s
}
