// Package embedding implements the C2 Embedding Service: a pluggable
// provider mapping text to a fixed-dimension unit vector.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/openhive/retrieval-engine/internal/config"
	"github.com/openhive/retrieval-engine/internal/types"
)

// New constructs the configured Embedder. Exactly one process-wide instance
// should be created at startup and passed into components by interface,
// per spec §9's guidance to model pluggable providers as an explicit
// interface selected at startup rather than a global import.
func New(cfg config.EmbeddingConfig) (types.Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "local":
		return NewLocal(cfg.Model, cfg.Dimension, cfg.Device), nil
	case "api":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("embedding: base_url required for api provider")
		}
		return NewAPI(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dimension)
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %q", cfg.Provider)
	}
}

// isEmpty centralizes the "empty/whitespace input -> none, no error"
// contract shared by every provider (spec §4.2).
func isEmpty(text string) bool {
	return strings.TrimSpace(text) == ""
}

// alignMany applies embedOne to each text, preserving positional alignment
// (spec §4.2's batch contract), leaving empty inputs as nil vectors.
func alignMany(ctx context.Context, texts []string, embedOne func(context.Context, string) (types.Vector, error)) ([]types.Vector, error) {
	out := make([]types.Vector, len(texts))
	for i, t := range texts {
		v, err := embedOne(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embed item %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
