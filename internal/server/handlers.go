package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openhive/retrieval-engine/internal/chat"
	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/search"
	"github.com/openhive/retrieval-engine/internal/types"
)

// handlers bundles Deps behind the methods router.go wires to routes.
type handlers struct {
	d Deps
}

// --- C2: /embedding ---

type embeddingRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *handlers) embedding(c *gin.Context) {
	var req embeddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.New(errors.KindValidation, err.Error()))
		return
	}
	vec, err := h.d.Embedder.Embed(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, errors.Wrap(errors.KindTransient, "embedding failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"embedding": vec, "dimension": h.d.Embedder.Dimension()})
}

// --- C3: /rerank ---

type rerankRequest struct {
	Query      string   `json:"query" binding:"required"`
	Candidates []string `json:"candidates" binding:"required"`
}

func (h *handlers) rerank(c *gin.Context) {
	var req rerankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.New(errors.KindValidation, err.Error()))
		return
	}
	candidates := make([]types.RerankCandidate, len(req.Candidates))
	for i, content := range req.Candidates {
		candidates[i] = types.RerankCandidate{ID: strconv.Itoa(i), Content: content}
	}
	results, err := h.d.Reranker.Rerank(c.Request.Context(), req.Query, candidates)
	if err != nil {
		writeError(c, errors.Wrap(errors.KindTransient, "rerank failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// --- C8: /v1/similar-* ---

type similarRequest struct {
	Text  string `json:"text" binding:"required"`
	State string `json:"state"`
}

func (h *handlers) embedQuery(c *gin.Context, text string) (types.Vector, bool) {
	vec, err := h.d.Embedder.Embed(c.Request.Context(), text)
	if err != nil || vec == nil {
		writeError(c, errors.Wrap(errors.KindTransient, "embed query", err))
		return nil, false
	}
	return vec, true
}

func (h *handlers) bindSimilar(c *gin.Context) (similarRequest, types.Vector, bool) {
	var req similarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.New(errors.KindValidation, err.Error()))
		return req, nil, false
	}
	vec, ok := h.embedQuery(c, req.Text)
	return req, vec, ok
}

// issueStateOf validates and lowercases the optional issue state filter
// (spec §6: one of open|closed, case-insensitive, else 422). Only a validated
// value reaches SimilarIssues, which binds it as a query parameter.
func issueStateOf(req similarRequest) (*types.IssueState, error) {
	if req.State == "" {
		return nil, nil
	}
	switch s := types.IssueState(strings.ToLower(req.State)); s {
	case types.IssueStateOpen, types.IssueStateClosed:
		return &s, nil
	default:
		return nil, errors.New(errors.KindValidation, "state must be 'open' or 'closed'")
	}
}

func (h *handlers) similarIssues(c *gin.Context) {
	req, vec, ok := h.bindSimilar(c)
	if !ok {
		return
	}
	state, err := issueStateOf(req)
	if err != nil {
		writeError(c, err)
		return
	}
	hits, err := search.SimilarIssues(c.Request.Context(), h.d.Store, vec, state, search.Options{})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": hits})
}

func (h *handlers) similarDocs(c *gin.Context) {
	_, vec, ok := h.bindSimilar(c)
	if !ok {
		return
	}
	hits, err := search.SimilarDocs(c.Request.Context(), h.d.Store, vec, search.Options{})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": hits})
}

func (h *handlers) similarForum(c *gin.Context) {
	_, vec, ok := h.bindSimilar(c)
	if !ok {
		return
	}
	hits, err := search.SimilarForumPosts(c.Request.Context(), h.d.Store, vec, search.Options{})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": hits})
}

func (h *handlers) similarQAs(c *gin.Context) {
	_, vec, ok := h.bindSimilar(c)
	if !ok {
		return
	}
	hits, err := search.SimilarQAs(c.Request.Context(), h.d.Store, vec, search.Options{})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": hits})
}

func (h *handlers) similarAll(c *gin.Context) {
	req, vec, ok := h.bindSimilar(c)
	if !ok {
		return
	}
	state, err := issueStateOf(req)
	if err != nil {
		writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	issues, _ := search.SimilarIssues(ctx, h.d.Store, vec, state, search.Options{})
	docs, _ := search.SimilarDocs(ctx, h.d.Store, vec, search.Options{})
	forum, _ := search.SimilarForumPosts(ctx, h.d.Store, vec, search.Options{})
	qas, _ := search.SimilarQAs(ctx, h.d.Store, vec, search.Options{})
	c.JSON(http.StatusOK, gin.H{"issues": issues, "docs": docs, "forum": forum, "qas": qas})
}

// --- C9: /v2/similar-* (reranked variants) ---

func (h *handlers) rerankAndRespond(c *gin.Context, query string, hits []search.Hit) {
	reranked, err := search.Rerank(c.Request.Context(), h.d.Reranker, query, hits, search.RerankOptions{})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": reranked})
}

func (h *handlers) rerankedIssues(c *gin.Context) {
	req, vec, ok := h.bindSimilar(c)
	if !ok {
		return
	}
	state, err := issueStateOf(req)
	if err != nil {
		writeError(c, err)
		return
	}
	hits, err := search.SimilarIssues(c.Request.Context(), h.d.Store, vec, state, search.Options{})
	if err != nil {
		writeError(c, err)
		return
	}
	h.rerankAndRespond(c, req.Text, hits)
}

func (h *handlers) rerankedDocs(c *gin.Context) {
	req, vec, ok := h.bindSimilar(c)
	if !ok {
		return
	}
	hits, err := search.SimilarDocs(c.Request.Context(), h.d.Store, vec, search.Options{})
	if err != nil {
		writeError(c, err)
		return
	}
	h.rerankAndRespond(c, req.Text, hits)
}

func (h *handlers) rerankedForum(c *gin.Context) {
	req, vec, ok := h.bindSimilar(c)
	if !ok {
		return
	}
	hits, err := search.SimilarForumPosts(c.Request.Context(), h.d.Store, vec, search.Options{})
	if err != nil {
		writeError(c, err)
		return
	}
	h.rerankAndRespond(c, req.Text, hits)
}

func (h *handlers) rerankedQAs(c *gin.Context) {
	req, vec, ok := h.bindSimilar(c)
	if !ok {
		return
	}
	hits, err := search.SimilarQAs(c.Request.Context(), h.d.Store, vec, search.Options{})
	if err != nil {
		writeError(c, err)
		return
	}
	h.rerankAndRespond(c, req.Text, hits)
}

func (h *handlers) rerankedAll(c *gin.Context) {
	req, vec, ok := h.bindSimilar(c)
	if !ok {
		return
	}
	state, err := issueStateOf(req)
	if err != nil {
		writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	issues, _ := search.SimilarIssues(ctx, h.d.Store, vec, state, search.Options{})
	docs, _ := search.SimilarDocs(ctx, h.d.Store, vec, search.Options{})
	forum, _ := search.SimilarForumPosts(ctx, h.d.Store, vec, search.Options{})
	qas, _ := search.SimilarQAs(ctx, h.d.Store, vec, search.Options{})

	all := append(append(append(issues, docs...), forum...), qas...)
	h.rerankAndRespond(c, req.Text, all)
}

// --- C10: /v2/chat ---

type chatRequest struct {
	Text   string `json:"text" binding:"required"`
	ChatID int64  `json:"chat_id"`
}

func (h *handlers) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.New(errors.KindValidation, err.Error()))
		return
	}
	resp, err := h.d.Chat.Handle(c.Request.Context(), chat.Request{Text: req.Text, ChatID: req.ChatID})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": resp.Answer, "sources": resp.Sources})
}

// --- C5 admin: /keywords, /synonyms ---

type keywordRequest struct {
	Keyword    string  `json:"keyword" binding:"required"`
	Definition string  `json:"definition" binding:"required"`
	Category   *string `json:"category"`
}

func (h *handlers) createKeyword(c *gin.Context) {
	var req keywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.New(errors.KindValidation, err.Error()))
		return
	}
	kw := &types.Keyword{Keyword: req.Keyword, Definition: req.Definition, Category: req.Category, IsActive: true}
	if err := h.d.Keywords.Create(c.Request.Context(), kw); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"keyword": kw})
}

func (h *handlers) updateKeyword(c *gin.Context) {
	var req keywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.New(errors.KindValidation, err.Error()))
		return
	}
	if err := h.d.Keywords.Update(c.Request.Context(), c.Param("keyword"), req.Definition, req.Category); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) toggleKeyword(c *gin.Context) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.New(errors.KindValidation, err.Error()))
		return
	}
	if err := h.d.Keywords.Toggle(c.Request.Context(), c.Param("keyword"), req.Active); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) deleteKeyword(c *gin.Context) {
	if err := h.d.Keywords.Delete(c.Request.Context(), c.Param("keyword")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) listKeywords(c *gin.Context) {
	rows, err := h.d.Keywords.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keywords": rows})
}

type synonymRequest struct {
	Word      string `json:"word" binding:"required"`
	SynonymOf string `json:"synonym_of" binding:"required"`
}

func (h *handlers) createSynonym(c *gin.Context) {
	var req synonymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.New(errors.KindValidation, err.Error()))
		return
	}
	syn := &types.Synonym{Word: req.Word, SynonymOf: req.SynonymOf}
	if err := h.d.Keywords.AddSynonym(c.Request.Context(), syn); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"synonym": syn})
}

func (h *handlers) deleteSynonym(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, errors.New(errors.KindValidation, "invalid synonym id"))
		return
	}
	if err := h.d.Keywords.DeleteSynonym(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) listSynonyms(c *gin.Context) {
	rows, err := h.d.Keywords.ListSynonyms(c.Request.Context(), c.Param("keyword"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"synonyms": rows})
}
