package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openhive/retrieval-engine/internal/logger"
	"github.com/openhive/retrieval-engine/internal/types"
)

// APIReranker calls an external cross-encoder rerank endpoint over HTTP,
// in the style of the Jina/Zhipu rerank clients: POST {query, documents} ->
// {results: [{index, relevance_score}]}.
type APIReranker struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewAPI constructs an APIReranker against baseURL.
func NewAPI(baseURL, apiKey, model string) *APIReranker {
	return &APIReranker{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponseItem struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankResponse struct {
	Results []rerankResponseItem `json:"results"`
}

// Rerank implements types.Reranker. On any provider failure it falls back
// to the input order, matching spec §4.3's non-fatal failure contract.
func (r *APIReranker) Rerank(ctx context.Context, query string, candidates []types.RerankCandidate) ([]types.RerankResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Content
	}

	reqBody, err := json.Marshal(rerankRequest{Model: r.model, Query: query, Documents: docs})
	if err != nil {
		logger.Warnf(ctx, "rerank: marshal request failed: %v", err)
		return identityOrder(candidates), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(reqBody))
	if err != nil {
		logger.Warnf(ctx, "rerank: build request failed: %v", err)
		return identityOrder(candidates), nil
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.apiKey))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		logger.Warnf(ctx, "rerank: request failed: %v", err)
		return identityOrder(candidates), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warnf(ctx, "rerank: read response failed: %v", err)
		return identityOrder(candidates), nil
	}
	if resp.StatusCode != http.StatusOK {
		logger.Warnf(ctx, "rerank: provider status %s: %s", resp.Status, string(body))
		return identityOrder(candidates), nil
	}

	var parsed rerankResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		logger.Warnf(ctx, "rerank: unmarshal response failed: %v", err)
		return identityOrder(candidates), nil
	}

	out := make([]types.RerankResult, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		if item.Index < 0 || item.Index >= len(candidates) {
			continue
		}
		out = append(out, types.RerankResult{
			Index: item.Index,
			ID:    candidates[item.Index].ID,
			Score: item.RelevanceScore,
		})
	}
	sortDescending(out)
	return out, nil
}
