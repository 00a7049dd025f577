package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/openhive/retrieval-engine/internal/logger"
	"github.com/openhive/retrieval-engine/internal/store"
	"github.com/openhive/retrieval-engine/internal/types"
)

// EmbedColumn fills one missing vector column across a page of rows,
// embedding each row's extracted text concurrently through pool (bounded
// concurrency per spec §5) and committing per-row via PatchEmbedding so a
// single failure never blocks the rest of the page (spec §4.6).
func EmbedColumn[T any](
	ctx context.Context, pool *ants.Pool, repo *store.Repo[T], embedder types.Embedder,
	textColumn, vecColumn string, pageSize int,
	idOf func(T) int64, extractText func(T) string,
) (int, error) {
	rows, err := repo.ScanMissing(ctx, textColumn, vecColumn, pageSize)
	if err != nil {
		return 0, err
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	processed := 0

	for _, row := range rows {
		row := row
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			text := extractText(row)
			vec, embedErr := embedder.Embed(ctx, text)
			if embedErr != nil {
				logger.Warnf(ctx, "embedder: %s.%s id=%d: %v", textColumn, vecColumn, idOf(row), embedErr)
				return
			}
			if vec == nil {
				return
			}
			if patchErr := repo.PatchEmbedding(ctx, idOf(row), vecColumn, vec); patchErr != nil {
				logger.Warnf(ctx, "embedder: patch %s id=%d: %v", vecColumn, idOf(row), patchErr)
				return
			}
			mu.Lock()
			processed++
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			logger.Warnf(ctx, "embedder: pool submit rejected: %v", submitErr)
		}
	}
	wg.Wait()
	return processed, nil
}

// EmbedIssueCycle implements the Issue embedding order title→body→summary
// (spec §4.6): each call fills the first column in priority order that
// still has missing rows, so a single cycle makes forward progress without
// needing to know in advance which column is behind.
func EmbedIssueCycle(ctx context.Context, pool *ants.Pool, repo *store.Repo[types.Issue], embedder types.Embedder, pageSize int) (int, error) {
	n, err := EmbedColumn(ctx, pool, repo, embedder, "title", "title_vec", pageSize,
		func(i types.Issue) int64 { return i.ID },
		func(i types.Issue) string { return i.Title })
	if err != nil || n > 0 {
		return n, err
	}
	n, err = EmbedColumn(ctx, pool, repo, embedder, "body", "body_vec", pageSize,
		func(i types.Issue) int64 { return i.ID },
		func(i types.Issue) string { return i.Body })
	if err != nil || n > 0 {
		return n, err
	}
	return EmbedColumn(ctx, pool, repo, embedder, "llm_summary", "summary_vec", pageSize,
		func(i types.Issue) int64 { return i.ID },
		func(i types.Issue) string { return derefStr(i.LLMSummary) })
}

// EmbedForumCycle implements ForumPost's conversation→summary order. The
// solution_vec column has no corresponding text-priority slot in spec §4.6,
// so it is filled last, only on cycles where neither ordered column had
// anything to embed.
func EmbedForumCycle(ctx context.Context, pool *ants.Pool, repo *store.Repo[types.ForumPost], embedder types.Embedder, pageSize int) (int, error) {
	n, err := EmbedColumn(ctx, pool, repo, embedder, "conversation", "conversation_vec", pageSize,
		func(f types.ForumPost) int64 { return f.ID },
		func(f types.ForumPost) string { return f.Conversation })
	if err != nil || n > 0 {
		return n, err
	}
	n, err = EmbedColumn(ctx, pool, repo, embedder, "llm_summary", "summary_vec", pageSize,
		func(f types.ForumPost) int64 { return f.ID },
		func(f types.ForumPost) string { return derefStr(f.LLMSummary) })
	if err != nil || n > 0 {
		return n, err
	}
	return EmbedColumn(ctx, pool, repo, embedder, "solution", "solution_vec", pageSize,
		func(f types.ForumPost) int64 { return f.ID },
		func(f types.ForumPost) string { return derefStr(f.Solution) })
}

// EmbedDocCycle implements Doc's markdown→summary order.
func EmbedDocCycle(ctx context.Context, pool *ants.Pool, repo *store.Repo[types.Doc], embedder types.Embedder, pageSize int) (int, error) {
	n, err := EmbedColumn(ctx, pool, repo, embedder, "markdown", "markdown_vec", pageSize,
		func(d types.Doc) int64 { return d.ID },
		func(d types.Doc) string { return d.Markdown })
	if err != nil || n > 0 {
		return n, err
	}
	return EmbedColumn(ctx, pool, repo, embedder, "llm_summary", "summary_vec", pageSize,
		func(d types.Doc) int64 { return d.ID },
		func(d types.Doc) string { return derefStr(d.LLMSummary) })
}

// EmbedQACycle implements QA's question→answer order.
func EmbedQACycle(ctx context.Context, pool *ants.Pool, repo *store.Repo[types.QA], embedder types.Embedder, pageSize int) (int, error) {
	n, err := EmbedColumn(ctx, pool, repo, embedder, "question", "question_vec", pageSize,
		func(q types.QA) int64 { return q.ID },
		func(q types.QA) string { return q.Question })
	if err != nil || n > 0 {
		return n, err
	}
	return EmbedColumn(ctx, pool, repo, embedder, "answer", "answer_vec", pageSize,
		func(q types.QA) int64 { return q.ID },
		func(q types.QA) string { return q.Answer })
}

// EmbedKeywordCycle composes one vector per Keyword from its keyword,
// definition, and synonyms (spec §4.6). Synonyms are loaded per-row since
// the page is already small and bounded by pageSize.
func EmbedKeywordCycle(ctx context.Context, pool *ants.Pool, repo *store.Repo[types.Keyword], synonyms *store.Repo[types.Synonym], embedder types.Embedder, pageSize int) (int, error) {
	return EmbedColumn(ctx, pool, repo, embedder, "keyword", "keyword_vec", pageSize,
		func(k types.Keyword) int64 { return k.ID },
		func(k types.Keyword) string {
			text := k.Keyword + "\n" + k.Definition
			rows, err := store.SynonymsOf(ctx, synonyms, k.Keyword)
			if err != nil {
				logger.Warnf(ctx, "embedder: load synonyms of %q: %v", k.Keyword, err)
				return text
			}
			for _, s := range rows {
				text += "\n" + s.Word
			}
			return text
		})
}

// EmbedSynonymCycle composes the word vector and the relation vector
// ("word: W\nsynonym_of: K") described by spec §4.6.
func EmbedSynonymCycle(ctx context.Context, pool *ants.Pool, repo *store.Repo[types.Synonym], embedder types.Embedder, pageSize int) (int, error) {
	n, err := EmbedColumn(ctx, pool, repo, embedder, "word", "word_vec", pageSize,
		func(s types.Synonym) int64 { return s.ID },
		func(s types.Synonym) string { return s.Word })
	if err != nil || n > 0 {
		return n, err
	}
	return EmbedColumn(ctx, pool, repo, embedder, "word", "synonym_vec", pageSize,
		func(s types.Synonym) int64 { return s.ID },
		func(s types.Synonym) string { return fmt.Sprintf("word: %s\nsynonym_of: %s", s.Word, s.SynonymOf) })
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
