// Package search implements the C8 Similarity Search Engine and the C9
// Reranked Search Facade (spec §4.8, §4.9).
package search

import (
	"context"
	"fmt"

	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/store"
	"github.com/openhive/retrieval-engine/internal/types"
	"github.com/openhive/retrieval-engine/internal/utils"
)

// EntityKind tags a Hit with the table it was found in. Distinct from
// types.SourceKind because QA results are themselves a search kind, not
// just a QA's weak reference target.
type EntityKind string

const (
	KindIssue EntityKind = "issue"
	KindForum EntityKind = "forum"
	KindDoc   EntityKind = "doc"
	KindQA    EntityKind = "qa"
)

const (
	defaultCandidatesPerColumn = 50
	defaultFinalLimit          = 10
)

// Hit is one similarity result, carrying enough of the source row to render
// an API response, feed the C9 reranker, or assemble C10 chat context.
type Hit struct {
	Kind       EntityKind
	ID         int64
	Similarity float64
	URL        string
	Fields     map[string]string // content fields, keyed for rerank.DispatchContent
	RerankScore *float64
}

var issueColumns = []string{"title_vec", "body_vec", "summary_vec"}
var forumColumns = []string{"conversation_vec", "summary_vec", "solution_vec"}
var docColumns = []string{"markdown_vec", "summary_vec"}
var qaColumns = []string{"question_vec", "answer_vec"}

// Options bounds a C8 search: candidatesPerColumn/finalLimit default per
// spec §4.8, and threshold (if non-nil) filters rows below a minimum
// similarity before any downstream rerank (spec §4.8's v2 cost bound).
type Options struct {
	CandidatesPerColumn int
	FinalLimit          int
	Threshold           *float64
}

func (o Options) withDefaults() Options {
	if o.CandidatesPerColumn <= 0 {
		o.CandidatesPerColumn = defaultCandidatesPerColumn
	}
	if o.FinalLimit <= 0 {
		o.FinalLimit = defaultFinalLimit
	}
	return o
}

func applyThreshold(rows []store.SimilarityRow, threshold *float64) []store.SimilarityRow {
	if threshold == nil {
		return rows
	}
	out := rows[:0]
	for _, r := range rows {
		if r.Similarity > *threshold {
			out = append(out, r)
		}
	}
	return out
}

// SimilarIssues implements `/v1/similar-github-issues`: C8 over
// {title_vec, body_vec, summary_vec}, with an optional state filter. state
// is assumed already validated (one of open|closed) by the caller; it is
// still bound as a query parameter, never interpolated into the SQL text.
func SimilarIssues(ctx context.Context, st *store.Store, q types.Vector, state *types.IssueState, opt Options) ([]Hit, error) {
	opt = opt.withDefaults()
	where := ""
	var whereArgs []interface{}
	if state != nil {
		where = "state = ?"
		whereArgs = []interface{}{string(*state)}
	}
	rows, err := store.SimilarityUnion(ctx, st.DB(), types.Issue{}.TableName(), issueColumns, q, where, whereArgs, opt.CandidatesPerColumn, opt.FinalLimit)
	if err != nil {
		return nil, err
	}
	rows = applyThreshold(rows, opt.Threshold)
	ids := idsOf(rows)
	rowsByID := make(map[int64]types.Issue, len(ids))
	entities, err := st.Issues.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		rowsByID[e.ID] = e
	}
	hits := make([]Hit, 0, len(rows))
	for _, r := range rows {
		e, ok := rowsByID[r.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			Kind:       KindIssue,
			ID:         e.ID,
			Similarity: r.Similarity,
			URL:        fmt.Sprintf("https://github.com/issues/%d", e.ExternalNumber),
			Fields:     map[string]string{"title": e.Title, "body": e.Body},
		})
	}
	return hits, nil
}

// SimilarForumPosts implements `/v1/similar-discourse-posts`: C8 over
// {conversation_vec, summary_vec, solution_vec}.
func SimilarForumPosts(ctx context.Context, st *store.Store, q types.Vector, opt Options) ([]Hit, error) {
	opt = opt.withDefaults()
	rows, err := store.SimilarityUnion(ctx, st.DB(), types.ForumPost{}.TableName(), forumColumns, q, "", nil, opt.CandidatesPerColumn, opt.FinalLimit)
	if err != nil {
		return nil, err
	}
	rows = applyThreshold(rows, opt.Threshold)
	entities, err := st.Forum.GetMany(ctx, idsOf(rows))
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]types.ForumPost, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	hits := make([]Hit, 0, len(rows))
	for _, r := range rows {
		e, ok := byID[r.ID]
		if !ok {
			continue
		}
		url := ""
		if e.ReferenceURL != nil {
			url = *e.ReferenceURL
		}
		hits = append(hits, Hit{
			Kind:       KindForum,
			ID:         e.ID,
			Similarity: r.Similarity,
			URL:        safeURL(url),
			Fields:     map[string]string{"title": e.Title, "conversation": e.Conversation},
		})
	}
	return hits, nil
}

// SimilarDocs implements `/v1/similar-metabase-docs`: C8 over
// {markdown_vec, summary_vec}.
func SimilarDocs(ctx context.Context, st *store.Store, q types.Vector, opt Options) ([]Hit, error) {
	opt = opt.withDefaults()
	rows, err := store.SimilarityUnion(ctx, st.DB(), types.Doc{}.TableName(), docColumns, q, "", nil, opt.CandidatesPerColumn, opt.FinalLimit)
	if err != nil {
		return nil, err
	}
	rows = applyThreshold(rows, opt.Threshold)
	entities, err := st.Docs.GetMany(ctx, idsOf(rows))
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]types.Doc, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	hits := make([]Hit, 0, len(rows))
	for _, r := range rows {
		e, ok := byID[r.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			Kind:       KindDoc,
			ID:         e.ID,
			Similarity: r.Similarity,
			URL:        safeURL(e.URL),
			Fields:     map[string]string{"markdown": e.Markdown},
		})
	}
	return hits, nil
}

// SimilarQAs implements `/v1/similar-questions`: C8 over
// {question_vec, answer_vec}, followed by cross-join URL reconstruction
// against each QA's weak source reference (spec §4.11).
func SimilarQAs(ctx context.Context, st *store.Store, q types.Vector, opt Options) ([]Hit, error) {
	opt = opt.withDefaults()
	rows, err := store.SimilarityUnion(ctx, st.DB(), types.QA{}.TableName(), qaColumns, q, "", nil, opt.CandidatesPerColumn, opt.FinalLimit)
	if err != nil {
		return nil, err
	}
	rows = applyThreshold(rows, opt.Threshold)
	entities, err := st.QAs.GetMany(ctx, idsOf(rows))
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]types.QA, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	hits := make([]Hit, 0, len(rows))
	for _, r := range rows {
		e, ok := byID[r.ID]
		if !ok {
			continue
		}
		url, urlErr := ResolveSourceURL(ctx, st, e.Ref())
		if urlErr != nil {
			return nil, urlErr
		}
		hits = append(hits, Hit{
			Kind:       KindQA,
			ID:         e.ID,
			Similarity: r.Similarity,
			URL:        url,
			Fields:     map[string]string{"question": e.Question, "answer": e.Answer},
		})
	}
	return hits, nil
}

// ResolveSourceURL reconstructs the URL a QA's (or chat entity's) weak
// source reference points at, by loading the referenced row directly
// (spec §4.11 "cross-join URL reconstruction").
func ResolveSourceURL(ctx context.Context, st *store.Store, ref types.SourceRef) (string, error) {
	switch ref.Kind {
	case types.SourceIssue:
		e, err := st.Issues.Get(ctx, ref.ID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("https://github.com/issues/%d", e.ExternalNumber), nil
	case types.SourceForum:
		e, err := st.Forum.Get(ctx, ref.ID)
		if err != nil {
			return "", err
		}
		if e.ReferenceURL != nil {
			return safeURL(*e.ReferenceURL), nil
		}
		return "", nil
	case types.SourceDoc:
		e, err := st.Docs.Get(ctx, ref.ID)
		if err != nil {
			return "", err
		}
		return safeURL(e.URL), nil
	default:
		return "", errors.New(errors.KindInternal, "search: unknown source kind "+string(ref.Kind))
	}
}

// safeURL drops any stored URL that doesn't pass IsValidURL before it ever
// reaches an API response, in case an ingested row carries a malformed or
// javascript:-style reference.
func safeURL(u string) string {
	if u == "" || !utils.IsValidURL(u) {
		return ""
	}
	return u
}

func idsOf(rows []store.SimilarityRow) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}
