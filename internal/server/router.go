package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/openhive/retrieval-engine/internal/chat"
	"github.com/openhive/retrieval-engine/internal/config"
	"github.com/openhive/retrieval-engine/internal/keyword"
	"github.com/openhive/retrieval-engine/internal/store"
	"github.com/openhive/retrieval-engine/internal/types"
)

// Deps bundles every component the HTTP surface exposes (spec §4.11:
// "Authenticated, rate-limited endpoints exposing C2, C3, C8, C9, C10, and
// admin operations on C5").
type Deps struct {
	Store     *store.Store
	Embedder  types.Embedder
	Reranker  types.Reranker
	Keywords  *keyword.Service
	Chat      *chat.Engine
	RateLimit config.RateLimitConfig
}

// NewRouter builds the gin engine implementing the C11 HTTP API Surface.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	h := &handlers{d: d}

	similarityLimit := rateLimitMiddleware(d.RateLimit.SimilarityRPM)
	embeddingLimit := rateLimitMiddleware(d.RateLimit.EmbeddingRPM)
	auth := authMiddleware(d.Store)

	r.POST("/embedding", auth, embeddingLimit, h.embedding)
	r.POST("/rerank", auth, similarityLimit, h.rerank)

	v1 := r.Group("/v1", auth, similarityLimit)
	{
		v1.POST("/similar-github-issues", h.similarIssues)
		v1.POST("/similar-metabase-docs", h.similarDocs)
		v1.POST("/similar-discourse-posts", h.similarForum)
		v1.POST("/similar-questions", h.similarQAs)
		v1.POST("/similar", h.similarAll)
	}

	v2 := r.Group("/v2", auth, similarityLimit)
	{
		v2.POST("/similar-github-issues", h.rerankedIssues)
		v2.POST("/similar-metabase-docs", h.rerankedDocs)
		v2.POST("/similar-discourse-posts", h.rerankedForum)
		v2.POST("/similar-questions", h.rerankedQAs)
		v2.POST("/similar", h.rerankedAll)
		v2.POST("/chat", h.chat)
	}

	admin := r.Group("/", auth)
	{
		admin.POST("/keywords", h.createKeyword)
		admin.PUT("/keywords/:keyword", h.updateKeyword)
		admin.POST("/keywords/:keyword/toggle", h.toggleKeyword)
		admin.DELETE("/keywords/:keyword", h.deleteKeyword)
		admin.GET("/keywords", h.listKeywords)

		admin.POST("/synonyms", h.createSynonym)
		admin.DELETE("/synonyms/:id", h.deleteSynonym)
		admin.GET("/synonyms/:keyword", h.listSynonyms)
	}

	return r
}
