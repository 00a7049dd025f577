package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"strconv"

	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/keyword"
	"github.com/openhive/retrieval-engine/internal/logger"
	"github.com/openhive/retrieval-engine/internal/store"
	"github.com/openhive/retrieval-engine/internal/types"
	"github.com/openhive/retrieval-engine/internal/utils"
)

// outputLine is one line of the provider's batch output JSONL.
type outputLine struct {
	CustomID string `json:"custom_id"`
	Response *struct {
		Body struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		} `json:"body"`
	} `json:"response"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

var containerKeys = []string{"results", "issues", "documents", "conversations", "items", "entries"}

// Counters tallies process-phase outcomes for observability (spec §4.7
// "maintain processed/error counters").
type Counters struct {
	Processed int
	Errors    int
}

// Process implements spec §4.7's process phase: for each output line,
// recover provenance from custom_id, decode the assistant content
// (primary then recovery parse), and dispatch each decoded item by
// operation kind. Each item commits independently; a per-item failure
// rolls back only that item and increments Errors.
func Process(ctx context.Context, outputPath string, st *store.Store, gw types.LLMGateway) (Counters, error) {
	var counters Counters

	f, err := os.Open(outputPath)
	if err != nil {
		return counters, errors.Wrap(errors.KindFatal, "batch: open output file", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var out outputLine
		if err := json.Unmarshal([]byte(line), &out); err != nil {
			logger.Warnf(ctx, "batch: malformed output line: %v", err)
			counters.Errors++
			continue
		}

		cid, err := ParseCustomID(out.CustomID)
		if err != nil {
			logger.Warnf(ctx, "batch: %v", err)
			counters.Errors++
			continue
		}
		if out.Error != nil {
			logger.Warnf(ctx, "batch: provider error for %s: %s", out.CustomID, out.Error.Message)
			counters.Errors++
			continue
		}
		if out.Response == nil || len(out.Response.Body.Choices) == 0 {
			logger.Warnf(ctx, "batch: empty response for %s", out.CustomID)
			counters.Errors++
			continue
		}

		content := out.Response.Body.Choices[0].Message.Content
		items, err := decodeItems(content)
		if err != nil {
			logger.Warnf(ctx, "batch: undecodable content for %s: %v", out.CustomID, err)
			counters.Errors++
			continue
		}

		for _, item := range items {
			if err := processItem(ctx, st, gw, cid, item); err != nil {
				logger.Warnf(ctx, "batch: item failed for %s: %v", out.CustomID, err)
				counters.Errors++
				continue
			}
			counters.Processed++
		}
	}
	if err := scanner.Err(); err != nil {
		return counters, errors.Wrap(errors.KindFatal, "batch: scan output file", err)
	}
	return counters, nil
}

// decodeItems implements spec §4.7's primary-then-recovery JSON decode:
// unwrap a known container key, accept a bare list, wrap a single object,
// or fall back to the regex-based fragment extractor.
func decodeItems(content string) ([]map[string]interface{}, error) {
	if content == "" || utils.LooksTruncated(content) {
		return recoverItems(content), nil
	}

	var asMap map[string]interface{}
	if err := json.Unmarshal([]byte(content), &asMap); err == nil {
		for _, key := range containerKeys {
			if list, ok := asMap[key].([]interface{}); ok {
				return toItemList(list), nil
			}
		}
		if _, hasID := asMap["id"]; hasID {
			return []map[string]interface{}{asMap}, nil
		}
		return nil, errors.New(errors.KindModelOutput, "batch: object has no recognized container key or id")
	}

	var asList []interface{}
	if err := json.Unmarshal([]byte(content), &asList); err == nil {
		return toItemList(asList), nil
	}

	items := recoverItems(content)
	if len(items) == 0 {
		return nil, errors.New(errors.KindModelOutput, "batch: unparseable content")
	}
	return items, nil
}

func toItemList(list []interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// recoverItems implements spec §4.7's recovery parse: a regex-based
// balanced-object extractor keeping fragments with an "id" field, falling
// back to per-token parses on comma/whitespace split.
func recoverItems(content string) []map[string]interface{} {
	var out []map[string]interface{}
	for _, fragment := range utils.ExtractObjectFragments(content) {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(fragment), &m); err != nil {
			continue
		}
		if _, ok := m["id"]; ok {
			out = append(out, m)
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, token := range splitTokens(content) {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(token), &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

func splitTokens(content string) []string {
	var tokens []string
	var cur []byte
	for _, r := range content {
		switch r {
		case ',', ' ', '\n', '\t':
			if len(cur) > 0 {
				tokens = append(tokens, string(cur))
				cur = cur[:0]
			}
		default:
			cur = append(cur, byte(r))
		}
	}
	if len(cur) > 0 {
		tokens = append(tokens, string(cur))
	}
	return tokens
}

// coerceID extracts an integer id from a decoded item's "id" field,
// tolerating both JSON numbers and numeric strings.
func coerceID(item map[string]interface{}) (int64, bool) {
	switch v := item["id"].(type) {
	case float64:
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}

func stringField(item map[string]interface{}, key string) (string, bool) {
	s, ok := item[key].(string)
	return s, ok
}

// processItem dispatches one decoded item by operation kind, per spec
// §4.7's process phase step. Every call commits its own row(s); the caller
// treats a returned error as that single item's rollback.
func processItem(ctx context.Context, st *store.Store, gw types.LLMGateway, cid CustomID, item map[string]interface{}) error {
	id, ok := coerceID(item)
	if !ok || !cid.Contains(id) {
		return errors.New(errors.KindModelOutput, "batch: item id missing or not in custom_id id list")
	}

	switch cid.Op {
	case types.OpSummarize:
		return processSummarize(ctx, st, cid.Table, id, item)
	case types.OpQuestions:
		return processQuestion(ctx, st, cid.Table, id, item)
	case types.OpQuestionsAndConcepts:
		if err := processQuestion(ctx, st, cid.Table, id, item); err != nil {
			return err
		}
		return processConcepts(ctx, st, gw, item)
	default:
		return errors.New(errors.KindInternal, "batch: unsupported operation "+string(cid.Op))
	}
}

func processSummarize(ctx context.Context, st *store.Store, table types.TableKind, id int64, item map[string]interface{}) error {
	summary, ok := stringField(item, "summary")
	if !ok {
		return errors.New(errors.KindModelOutput, "batch: summarize item missing summary")
	}

	switch table {
	case types.TableIssues:
		fields := map[string]interface{}{"llm_summary": summary}
		if v, ok := stringField(item, "reported_version"); ok {
			fields["reported_version"] = v
		}
		if v, ok := stringField(item, "stack_trace_file"); ok {
			fields["stack_trace_file"] = v
		}
		return st.Issues.PatchFields(ctx, id, fields)
	case types.TableForumPosts:
		return st.Forum.PatchSummary(ctx, id, summary)
	case types.TableDocs:
		return st.Docs.PatchSummary(ctx, id, summary)
	default:
		return errors.New(errors.KindInternal, "batch: summarize unsupported table "+string(table))
	}
}

func processQuestion(ctx context.Context, st *store.Store, table types.TableKind, id int64, item map[string]interface{}) error {
	question, hasQ := stringField(item, "question")
	answer, hasA := stringField(item, "answer")
	if !hasQ || !hasA {
		return errors.New(errors.KindModelOutput, "batch: question item missing question/answer")
	}

	qa := &types.QA{
		SourceKind: sourceKindFor(table),
		SourceID:   id,
		Question:   question,
		Answer:     answer,
	}
	_, err := store.InsertQADeduped(ctx, st.QAs, qa)
	return err
}

func processConcepts(ctx context.Context, st *store.Store, gw types.LLMGateway, item map[string]interface{}) error {
	rawKeywords, ok := item["keywords"].([]interface{})
	if !ok {
		return nil
	}
	for _, rk := range rawKeywords {
		m, ok := rk.(map[string]interface{})
		if !ok {
			continue
		}
		kw, hasKw := stringField(m, "keyword")
		def, hasDef := stringField(m, "definition")
		if !hasKw || !hasDef {
			continue
		}
		mergeFn := func(existing, incoming string) (string, error) {
			return keyword.MergeDefinitions(ctx, gw, existing, incoming)
		}
		if err := store.UpsertExtractedKeyword(ctx, st.Keywords, kw, def, mergeFn); err != nil {
			return err
		}
	}
	return nil
}
