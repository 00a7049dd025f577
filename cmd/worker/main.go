// Command worker runs the C6 Enrichment Workers: cooperative embedding
// loops driven by an ants pool, plus the C7 Batch Orchestrator's
// build/submit/monitor cycle driven by asynq's periodic scheduler.
package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"

	"github.com/openhive/retrieval-engine/internal/batch"
	"github.com/openhive/retrieval-engine/internal/config"
	"github.com/openhive/retrieval-engine/internal/keyword"
	"github.com/openhive/retrieval-engine/internal/logger"
	"github.com/openhive/retrieval-engine/internal/models/embedding"
	"github.com/openhive/retrieval-engine/internal/models/llm"
	"github.com/openhive/retrieval-engine/internal/store"
	"github.com/openhive/retrieval-engine/internal/types"
	"github.com/openhive/retrieval-engine/internal/workers"
)

// batchCombos enumerates every (op, table) pair the batch orchestrator
// builds on a schedule (spec §4.7): summarize and questions_and_concepts,
// each over the three source tables that feed QAs.
var batchCombos = []workers.BatchCyclePayload{
	{Op: types.OpSummarize, Table: types.TableIssues},
	{Op: types.OpSummarize, Table: types.TableForumPosts},
	{Op: types.OpSummarize, Table: types.TableDocs},
	{Op: types.OpQuestionsAndConcepts, Table: types.TableIssues},
	{Op: types.OpQuestionsAndConcepts, Table: types.TableForumPosts},
	{Op: types.OpQuestionsAndConcepts, Table: types.TableDocs},
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrationsDir := flag.String("migrations", "migrations", "path to migrations directory")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger.SetLevel(*logLevel)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.GetLogger(ctx).Fatalf("worker: load config: %v", err)
	}

	db, err := store.Open(cfg.Database)
	if err != nil {
		logger.GetLogger(ctx).Fatalf("worker: open database: %v", err)
	}
	if err := store.Migrate(db, *migrationsDir); err != nil {
		logger.GetLogger(ctx).Fatalf("worker: migrate: %v", err)
	}
	st := store.New(db)

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		logger.GetLogger(ctx).Fatalf("worker: build embedder: %v", err)
	}
	keywords := keyword.New(db)
	gateway := llm.New(cfg.LLM, keywords)

	pool, err := ants.NewPool(orDefault(cfg.Worker.PoolSize, 8))
	if err != nil {
		logger.GetLogger(ctx).Fatalf("worker: build pool: %v", err)
	}
	defer pool.Release()

	loopCfg := workers.LoopConfig{
		PageSize:       cfg.Worker.PageSize,
		PollInterval:   time.Duration(orDefault(cfg.Worker.PollIntervalSeconds, 30)) * time.Second,
		BackoffSeconds: time.Duration(orDefault(cfg.Worker.BackoffSeconds, 5)) * time.Second,
		MaxBackoff:     time.Duration(orDefault(cfg.Worker.MaxBackoffSeconds, 300)) * time.Second,
	}

	go runEmbedLoop(ctx, "embed:issues", loopCfg, func(ctx context.Context) (int, error) {
		return workers.EmbedIssueCycle(ctx, pool, st.Issues, embedder, cfg.Worker.PageSize)
	})
	go runEmbedLoop(ctx, "embed:forum", loopCfg, func(ctx context.Context) (int, error) {
		return workers.EmbedForumCycle(ctx, pool, st.Forum, embedder, cfg.Worker.PageSize)
	})
	go runEmbedLoop(ctx, "embed:docs", loopCfg, func(ctx context.Context) (int, error) {
		return workers.EmbedDocCycle(ctx, pool, st.Docs, embedder, cfg.Worker.PageSize)
	})
	go runEmbedLoop(ctx, "embed:qas", loopCfg, func(ctx context.Context) (int, error) {
		return workers.EmbedQACycle(ctx, pool, st.QAs, embedder, cfg.Worker.PageSize)
	})
	go runEmbedLoop(ctx, "embed:keywords", loopCfg, func(ctx context.Context) (int, error) {
		return workers.EmbedKeywordCycle(ctx, pool, st.Keywords, st.Synonyms, embedder, cfg.Worker.PageSize)
	})
	go runEmbedLoop(ctx, "embed:synonyms", loopCfg, func(ctx context.Context) (int, error) {
		return workers.EmbedSynonymCycle(ctx, pool, st.Synonyms, embedder, cfg.Worker.PageSize)
	})

	runAsynq(ctx, cfg, db, st, keywords, gateway)
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

func runEmbedLoop(ctx context.Context, name string, cfg workers.LoopConfig, cycle workers.Cycle) {
	cfg.Name = name
	workers.Run(ctx, cfg, cycle)
}

// runAsynq registers the periodic batch:cycle/batch:monitor tasks on
// asynq's scheduler and blocks serving them until ctx is cancelled.
func runAsynq(ctx context.Context, cfg *config.Config, db *gorm.DB, st *store.Store, keywords *keyword.Service, gateway *llm.Gateway) {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}

	handlers := &workers.BatchHandlers{
		DB:       db,
		Store:    st,
		Keywords: keywords,
		Gateway:  gateway,
		Client:   batch.NewClient(cfg.Batch),
		Cfg:      cfg.Batch,
	}

	scheduler := asynq.NewScheduler(redisOpt, nil)
	for _, combo := range batchCombos {
		task, err := workers.NewBatchCycleTask(combo.Op, combo.Table)
		if err != nil {
			logger.GetLogger(ctx).Fatalf("worker: build batch cycle task %s/%s: %v", combo.Op, combo.Table, err)
		}
		if _, err := scheduler.Register("@every 5m", task); err != nil {
			logger.GetLogger(ctx).Fatalf("worker: register batch cycle %s/%s: %v", combo.Op, combo.Table, err)
		}
	}
	monitorSpec := fmt.Sprintf("@every %ds", orDefault(cfg.Batch.PollIntervalSeconds, 60))
	if _, err := scheduler.Register(monitorSpec, workers.NewBatchMonitorTask()); err != nil {
		logger.GetLogger(ctx).Fatalf("worker: register batch monitor: %v", err)
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(workers.TaskBatchCycle, handlers.HandleBatchCycle)
	mux.HandleFunc(workers.TaskBatchMonitor, handlers.HandleBatchMonitor)

	srv := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 4})

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.GetLogger(ctx).Errorf("worker: scheduler stopped: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		scheduler.Shutdown()
		srv.Shutdown()
	}()

	if err := srv.Run(mux); err != nil {
		logger.GetLogger(ctx).Fatalf("worker: asynq server: %v", err)
	}
}
