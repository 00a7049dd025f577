package batch

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openhive/retrieval-engine/internal/config"
	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/logger"
	"github.com/openhive/retrieval-engine/internal/store"
	"github.com/openhive/retrieval-engine/internal/types"
)

// MonitorOnce implements one pass of spec §4.7's monitor phase: load every
// in-flight BatchProcess row, poll its provider status, and advance local
// state. Per-batch errors are logged and do not stop the rest of the pass
// (spec §4.7 "errors in one do not affect others").
func MonitorOnce(ctx context.Context, client *Client, st *store.Store, cfg config.BatchConfig, onCompleted func(context.Context, *types.BatchProcess, string) error) (int, error) {
	rows, err := store.InFlight(ctx, st.Batches)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range rows {
		row := &rows[i]
		if err := monitorOne(ctx, client, st, cfg, row, onCompleted); err != nil {
			logger.Warnf(ctx, "batch monitor: batch %s: %v", row.BatchID, err)
			continue
		}
		processed++
	}
	return processed, nil
}

func monitorOne(ctx context.Context, client *Client, st *store.Store, cfg config.BatchConfig, row *types.BatchProcess, onCompleted func(context.Context, *types.BatchProcess, string) error) error {
	remote, err := client.oa.RetrieveBatch(ctx, row.BatchID)
	if err != nil {
		return errors.Wrap(errors.KindTransient, "batch: retrieve status", err)
	}

	next := mapRemoteStatus(remote.Status)
	if next == row.Status {
		return nil
	}

	switch next {
	case types.BatchCompleted:
		outputPath, dlErr := downloadOutput(ctx, client, cfg, row.BatchID, remote.OutputFileID)
		if dlErr != nil {
			return dlErr
		}
		if err := store.TransitionStatus(ctx, st.Batches, row.BatchID, types.BatchFinalizing, nil); err != nil {
			return err
		}
		row.Status = types.BatchFinalizing
		row.OutputFilePath = &outputPath
		outputFileID := remote.OutputFileID
		row.OutputFileID = &outputFileID
		if err := st.Batches.PatchFields(ctx, row.ID, map[string]interface{}{
			"output_file_path": outputPath, "output_file_id": outputFileID,
		}); err != nil {
			logger.Warnf(ctx, "batch: persist output file metadata for %s: %v", row.BatchID, err)
		}
		if onCompleted != nil {
			if procErr := onCompleted(ctx, row, outputPath); procErr != nil {
				msg := procErr.Error()
				_ = store.TransitionStatus(ctx, st.Batches, row.BatchID, types.BatchProcessingFailed, &msg)
				return procErr
			}
		}
		return store.TransitionStatus(ctx, st.Batches, row.BatchID, types.BatchCompleted, nil)
	case types.BatchFailed, types.BatchExpired, types.BatchCancelled:
		msg := fmt.Sprintf("%v", remote.Errors)
		return store.TransitionStatus(ctx, st.Batches, row.BatchID, next, &msg)
	default:
		return store.TransitionStatus(ctx, st.Batches, row.BatchID, next, nil)
	}
}

func mapRemoteStatus(s string) types.BatchStatus {
	switch s {
	case "validating", "in_progress":
		return types.BatchInProgress
	case "finalizing":
		return types.BatchFinalizing
	case "completed":
		return types.BatchCompleted
	case "failed":
		return types.BatchFailed
	case "expired":
		return types.BatchExpired
	case "cancelling", "cancelled":
		return types.BatchCancelled
	default:
		return types.BatchInProgress
	}
}

func downloadOutput(ctx context.Context, client *Client, cfg config.BatchConfig, batchID, outputFileID string) (string, error) {
	if outputFileID == "" {
		return "", errors.New(errors.KindTransient, "batch: completed batch has no output_file_id")
	}
	content, err := client.oa.GetFileContent(ctx, outputFileID)
	if err != nil {
		return "", errors.Wrap(errors.KindTransient, "batch: download output file", err)
	}
	defer content.Close()

	if err := os.MkdirAll(cfg.ReceivedDir, 0o755); err != nil {
		return "", errors.Wrap(errors.KindFatal, "batch: create received dir", err)
	}
	path := filepath.Join(cfg.ReceivedDir, fmt.Sprintf("results_%s.jsonl", batchID))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(errors.KindFatal, "batch: create output file", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.ReadFrom(content); err != nil {
		return "", errors.Wrap(errors.KindFatal, "batch: write output file", err)
	}
	if err := w.Flush(); err != nil {
		return "", errors.Wrap(errors.KindFatal, "batch: flush output file", err)
	}
	return path, nil
}

// CleanupProviderFiles implements spec §4.7's post-process cleanup: delete
// both input and output files from the provider's file store, treating 404
// as already-deleted success, best-effort (failures logged, not fatal).
func CleanupProviderFiles(ctx context.Context, client *Client, inputFileID, outputFileID string) {
	for _, id := range []string{inputFileID, outputFileID} {
		if id == "" {
			continue
		}
		if err := client.oa.DeleteFile(ctx, id); err != nil {
			logger.Warnf(ctx, "batch: delete provider file %s: %v", id, err)
		}
	}
}

// pollEvery returns cfg.PollIntervalSeconds as a duration, or 60s when it
// is not set.
func pollEvery(cfg config.BatchConfig) time.Duration {
	if cfg.PollIntervalSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(cfg.PollIntervalSeconds) * time.Second
}
