package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/openhive/retrieval-engine/internal/logger"
	"github.com/openhive/retrieval-engine/internal/types"
)

// selfAddrs are addresses the API embedder refuses to call, guarding against
// the "API" provider recursively pointing at this same process (spec §4.2).
var selfAddrs = []string{"127.0.0.1", "localhost", "::1"}

// APIEmbedder calls an external HTTP embedding endpoint with an X-API-Key
// header, mirroring spec §4.2's "API" provider.
type APIEmbedder struct {
	baseURL   string
	apiKey    string
	model     string
	dimension int
	client    *http.Client
}

// NewAPI constructs an APIEmbedder, refusing to configure a self-referential
// base URL.
func NewAPI(baseURL, apiKey, model string, dimension int) (*APIEmbedder, error) {
	if isSelfAddr(baseURL) {
		return nil, fmt.Errorf("embedding: api provider base_url %q points at this process", baseURL)
	}
	if dimension <= 0 {
		dimension = 768
	}
	return &APIEmbedder{
		baseURL:   baseURL,
		apiKey:    apiKey,
		model:     model,
		dimension: dimension,
		client:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func isSelfAddr(baseURL string) bool {
	for _, addr := range selfAddrs {
		if strings.Contains(baseURL, addr) {
			return true
		}
	}
	if own := os.Getenv("SERVICE_ADDR"); own != "" && strings.Contains(baseURL, own) {
		return true
	}
	return false
}

func (e *APIEmbedder) Dimension() int { return e.dimension }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponseItem struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embedResponse struct {
	Data []embedResponseItem `json:"data"`
}

// Embed implements types.Embedder.
func (e *APIEmbedder) Embed(ctx context.Context, text string) (types.Vector, error) {
	if isEmpty(text) {
		return nil, nil
	}
	vecs, err := e.callProvider(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedMany implements types.Embedder, dispatching a single batched HTTP
// call so the caller pays one round trip for the whole slice (spec §4.2's
// async batch variant — parallel dispatch across independent calls is
// handled by the enrichment workers' pool, not by this single-request path).
func (e *APIEmbedder) EmbedMany(ctx context.Context, texts []string) ([]types.Vector, error) {
	nonEmptyIdx := make([]int, 0, len(texts))
	nonEmptyTexts := make([]string, 0, len(texts))
	for i, t := range texts {
		if !isEmpty(t) {
			nonEmptyIdx = append(nonEmptyIdx, i)
			nonEmptyTexts = append(nonEmptyTexts, t)
		}
	}

	out := make([]types.Vector, len(texts))
	if len(nonEmptyTexts) == 0 {
		return out, nil
	}

	vecs, err := e.callProvider(ctx, nonEmptyTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range nonEmptyIdx {
		out[idx] = vecs[j]
	}
	return out, nil
}

func (e *APIEmbedder) callProvider(ctx context.Context, texts []string) ([]types.Vector, error) {
	reqBody, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("embedding: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.GetLogger(ctx).Errorf("embedding: provider status %s: %s", resp.Status, string(body))
		return nil, fmt.Errorf("embedding: provider error: %s", resp.Status)
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("embedding: unmarshal response: %w", err)
	}

	out := make([]types.Vector, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			continue
		}
		out[item.Index] = item.Embedding
	}
	return out, nil
}
