package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"gorm.io/gorm"

	"github.com/openhive/retrieval-engine/internal/config"
	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/keyword"
	"github.com/openhive/retrieval-engine/internal/types"
)

// RequestLine is one line of the provider's batch input JSONL, matching
// the documented `{custom_id, method, url, body}` envelope (spec §4.7
// build phase step 3-4).
type RequestLine struct {
	CustomID string                              `json:"custom_id"`
	Method   string                              `json:"method"`
	URL      string                               `json:"url"`
	Body     openai.ChatCompletionRequest `json:"body"`
}

// BuildResult is the outcome of one (op, table) build pass: the batches it
// packed and the JSONL file path it wrote them to.
type BuildResult struct {
	Op            types.OperationKind
	Table         types.TableKind
	InputFilePath string
	TotalRequests int
}

// Build implements spec §4.7's build phase for one (op, table) pair: select
// candidates, partition into entity-batches, render one chat-completion
// request per batch with BASE_GLOBAL_CONTEXT + RELEVANT_KEYWORDS + task
// prompt, and write the JSONL file.
func Build(
	ctx context.Context, db *gorm.DB, cfg config.BatchConfig, keywords *keyword.Service,
	op types.OperationKind, table types.TableKind, maxCandidates int,
) (*BuildResult, error) {
	candidates, err := Candidates(ctx, db, op, table, maxCandidates)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	batches := Partition(candidates, cfg.EntitiesPerBatch)

	if err := os.MkdirAll(cfg.SentDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.KindFatal, "batch: create sent dir", err)
	}
	fileName := fmt.Sprintf("efficient_%s_%s_%s.jsonl", op, table, uuid.NewString())
	path := filepath.Join(cfg.SentDir, fileName)

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.KindFatal, "batch: create input jsonl", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	total := 0
	for i, group := range batches {
		cid := CustomID{Op: op, Table: table, Index: i, IDs: idList(group)}
		system := baseGlobalContext
		if relevant, kwErr := keywords.Relevant(ctx, concatenatedText(group)); kwErr == nil && len(relevant) > 0 {
			system += "\n\n" + keyword.RenderInjectionBlock(relevant)
		}
		system += "\n\n" + taskPrompt(op, table)

		renderedBatch := make([]EntityText, len(group))
		for j, e := range group {
			renderedBatch[j] = EntityText{ID: e.ID, Header: e.Header, Body: truncateField(e.Body, cfg.MaxFieldChars)}
		}

		req := openai.ChatCompletionRequest{
			Model: cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: renderUserMessage(renderedBatch)},
			},
			MaxTokens:      maxTokensFor(op),
			ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		}
		line := RequestLine{CustomID: cid.Encode(), Method: "POST", URL: "/v1/chat/completions", Body: req}
		encoded, marshalErr := json.Marshal(line)
		if marshalErr != nil {
			return nil, errors.Wrap(errors.KindInternal, "batch: marshal request line", marshalErr)
		}
		if _, writeErr := w.Write(append(encoded, '\n')); writeErr != nil {
			return nil, errors.Wrap(errors.KindFatal, "batch: write jsonl", writeErr)
		}
		total++
	}
	if err := w.Flush(); err != nil {
		return nil, errors.Wrap(errors.KindFatal, "batch: flush jsonl", err)
	}

	return &BuildResult{Op: op, Table: table, InputFilePath: path, TotalRequests: total}, nil
}
