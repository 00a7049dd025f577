package batch

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/openhive/retrieval-engine/internal/config"
	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/store"
	"github.com/openhive/retrieval-engine/internal/types"
)

// Client wraps the provider's files+batches API surface used by the
// submit/monitor/process phases (spec §4.7).
type Client struct {
	oa *openai.Client
}

// NewClient constructs a batch Client from config.
func NewClient(cfg config.BatchConfig) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{oa: openai.NewClientWithConfig(clientCfg)}
}

// Submit implements spec §4.7's submit phase: upload the JSONL file with
// purpose=batch, create a batch referencing it, and persist a
// BatchProcess row in status=sent.
func Submit(ctx context.Context, client *Client, batches *store.Repo[types.BatchProcess], cfg config.BatchConfig, result *BuildResult) (*types.BatchProcess, error) {
	file, err := client.oa.CreateFile(ctx, openai.FileRequest{
		FileName: result.InputFilePath,
		FilePath: result.InputFilePath,
		Purpose:  "batch",
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindTransient, "batch: upload input file", err)
	}

	window := "24h"
	if cfg.CompletionWindow > 0 {
		window = cfg.CompletionWindow.String()
	}
	created, err := client.oa.CreateBatch(ctx, openai.CreateBatchRequest{
		InputFileID:      file.ID,
		Endpoint:         openai.BatchEndpoint(openai.BatchEndpointChatCompletions),
		CompletionWindow: window,
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindTransient, "batch: create batch", err)
	}

	now := time.Now()
	row := &types.BatchProcess{
		BatchID:       created.ID,
		OperationKind: result.Op,
		TableKind:     result.Table,
		TotalRequests: result.TotalRequests,
		InputFilePath: result.InputFilePath,
		InputFileID:   file.ID,
		Status:        types.BatchSent,
		SentAt:        &now,
	}
	if err := batches.Upsert(ctx, row, "batch_id"); err != nil {
		return nil, err
	}
	return row, nil
}
