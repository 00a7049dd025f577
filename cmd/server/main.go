// Command server runs the C11 HTTP API Surface: embedding, rerank,
// similarity search (plain and reranked), RAG chat, and C5 admin endpoints.
package main

import (
	"context"
	"flag"

	"github.com/openhive/retrieval-engine/internal/chat"
	"github.com/openhive/retrieval-engine/internal/config"
	"github.com/openhive/retrieval-engine/internal/keyword"
	"github.com/openhive/retrieval-engine/internal/logger"
	"github.com/openhive/retrieval-engine/internal/models/embedding"
	"github.com/openhive/retrieval-engine/internal/models/llm"
	"github.com/openhive/retrieval-engine/internal/models/rerank"
	"github.com/openhive/retrieval-engine/internal/server"
	"github.com/openhive/retrieval-engine/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrationsDir := flag.String("migrations", "migrations", "path to migrations directory")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger.SetLevel(*logLevel)
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.GetLogger(ctx).Fatalf("server: load config: %v", err)
	}

	db, err := store.Open(cfg.Database)
	if err != nil {
		logger.GetLogger(ctx).Fatalf("server: open database: %v", err)
	}
	if err := store.Migrate(db, *migrationsDir); err != nil {
		logger.GetLogger(ctx).Fatalf("server: migrate: %v", err)
	}

	st := store.New(db)

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		logger.GetLogger(ctx).Fatalf("server: build embedder: %v", err)
	}
	reranker, err := rerank.New(cfg.Reranker)
	if err != nil {
		logger.GetLogger(ctx).Fatalf("server: build reranker: %v", err)
	}

	keywords := keyword.New(db)
	gateway := llm.New(cfg.LLM, keywords)
	chatEngine := chat.New(st, embedder, keywords, gateway, cfg.Chat)

	router := server.NewRouter(server.Deps{
		Store:     st,
		Embedder:  embedder,
		Reranker:  reranker,
		Keywords:  keywords,
		Chat:      chatEngine,
		RateLimit: cfg.RateLimit,
	})

	logger.GetLogger(ctx).Infof("server: listening on %s", cfg.HTTP.Addr)
	if err := router.Run(cfg.HTTP.Addr); err != nil {
		logger.GetLogger(ctx).Fatalf("server: run: %v", err)
	}
}
