package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/openhive/retrieval-engine/internal/batch"
	"github.com/openhive/retrieval-engine/internal/config"
	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/keyword"
	"github.com/openhive/retrieval-engine/internal/logger"
	"github.com/openhive/retrieval-engine/internal/store"
	"github.com/openhive/retrieval-engine/internal/types"
)

// Batch build/submit/monitor runs on asynq's periodic scheduler rather than
// the cooperative LoopConfig/Run harness: unlike embedding or summarizing a
// page at a time, a batch cycle is a scheduled, idempotent, at-most-once
// unit of work best expressed as a queued task (spec §4.6/§4.7).

const (
	// TaskBatchCycle builds and submits one (op, table) batch if candidates exist.
	TaskBatchCycle = "batch:cycle"
	// TaskBatchMonitor polls every in-flight batch and processes completions.
	TaskBatchMonitor = "batch:monitor"
)

// BatchCyclePayload identifies which (op, table) pair a batch:cycle task builds.
type BatchCyclePayload struct {
	Op    types.OperationKind `json:"op"`
	Table types.TableKind     `json:"table"`
}

// NewBatchCycleTask packages a BatchCyclePayload for enqueueing/scheduling.
func NewBatchCycleTask(op types.OperationKind, table types.TableKind) (*asynq.Task, error) {
	payload, err := json.Marshal(BatchCyclePayload{Op: op, Table: table})
	if err != nil {
		return nil, fmt.Errorf("workers: marshal batch cycle payload: %w", err)
	}
	return asynq.NewTask(TaskBatchCycle, payload), nil
}

// NewBatchMonitorTask packages the (payload-less) batch:monitor task.
func NewBatchMonitorTask() *asynq.Task {
	return asynq.NewTask(TaskBatchMonitor, nil)
}

// BatchHandlers groups every dependency the two batch task handlers need,
// mirroring the teacher's task-handler-holds-its-deps shape.
type BatchHandlers struct {
	DB       *gorm.DB
	Store    *store.Store
	Keywords *keyword.Service
	Gateway  types.LLMGateway
	Client   *batch.Client
	Cfg      config.BatchConfig
}

// HandleBatchCycle implements asynq.HandlerFunc for TaskBatchCycle: build the
// named (op, table) pair and submit it if any candidates were found.
func (h *BatchHandlers) HandleBatchCycle(ctx context.Context, t *asynq.Task) error {
	var payload BatchCyclePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("workers: unmarshal batch cycle payload: %w", err)
	}

	result, err := batch.Build(ctx, h.DB, h.Cfg, h.Keywords, payload.Op, payload.Table, h.Cfg.EntitiesPerBatch)
	if err != nil {
		return fmt.Errorf("workers: build %s/%s: %w", payload.Op, payload.Table, err)
	}
	if result == nil {
		logger.Infof(ctx, "worker batch: no candidates for %s/%s", payload.Op, payload.Table)
		return nil
	}

	if _, err := batch.Submit(ctx, h.Client, h.Store.Batches, h.Cfg, result); err != nil {
		return fmt.Errorf("workers: submit %s/%s: %w", payload.Op, payload.Table, err)
	}
	logger.Infof(ctx, "worker batch: submitted %d requests for %s/%s", result.TotalRequests, payload.Op, payload.Table)
	return nil
}

// HandleBatchMonitor implements asynq.HandlerFunc for TaskBatchMonitor: poll
// every in-flight batch, and on completion run the process phase followed
// by best-effort provider-file cleanup (spec §4.7).
func (h *BatchHandlers) HandleBatchMonitor(ctx context.Context, _ *asynq.Task) error {
	onCompleted := func(ctx context.Context, row *types.BatchProcess, outputPath string) error {
		counters, err := batch.Process(ctx, outputPath, h.Store, h.Gateway)
		if err != nil {
			return err
		}
		logger.Infof(ctx, "worker batch: processed %s: %d ok, %d errors", row.BatchID, counters.Processed, counters.Errors)
		outputFileID := ""
		if row.OutputFileID != nil {
			outputFileID = *row.OutputFileID
		}
		batch.CleanupProviderFiles(ctx, h.Client, row.InputFileID, outputFileID)
		return nil
	}

	processed, err := batch.MonitorOnce(ctx, h.Client, h.Store, h.Cfg, onCompleted)
	if err != nil {
		return errors.Wrap(errors.KindTransient, "workers: monitor batches", err)
	}
	logger.Infof(ctx, "worker batch: monitor pass touched %d batches", processed)
	return nil
}
