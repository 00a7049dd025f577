package embedding

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/openhive/retrieval-engine/internal/types"
)

// LocalEmbedder stands in for an in-process sentence-embedding model (spec
// §4.2 "Local" provider, "device selected as GPU if available else CPU").
// It derives a deterministic, unit-normalized vector from SHA-256 hashes of
// the whole input text, so identical input always yields an identical
// vector, satisfying the round-trip invariant in spec §8 without requiring
// a real model runtime.
type LocalEmbedder struct {
	modelName string
	dimension int
	device    string
}

// NewLocal constructs a LocalEmbedder with the given dimension.
func NewLocal(modelName string, dimension int, device string) *LocalEmbedder {
	if dimension <= 0 {
		dimension = 768
	}
	return &LocalEmbedder{modelName: modelName, dimension: dimension, device: device}
}

func (e *LocalEmbedder) Dimension() int { return e.dimension }

func (e *LocalEmbedder) GetModelName() string { return e.modelName }

// Embed implements types.Embedder.
func (e *LocalEmbedder) Embed(ctx context.Context, text string) (types.Vector, error) {
	if isEmpty(text) {
		return nil, nil
	}
	return hashEmbed(text, e.dimension), nil
}

// EmbedMany implements types.Embedder.
func (e *LocalEmbedder) EmbedMany(ctx context.Context, texts []string) ([]types.Vector, error) {
	return alignMany(ctx, texts, e.Embed)
}

// hashEmbed projects text into R^d: the first 32 components come from
// SHA-256(text), each further block of 32 from SHA-256 of the previous block
// followed by the block index byte; the result is then L2-normalized.
func hashEmbed(text string, dim int) types.Vector {
	vec := make([]float32, dim)
	block := sha256.Sum256([]byte(text))
	for i := 0; i < dim; i++ {
		if i > 0 && i%32 == 0 {
			block = sha256.Sum256(append(block[:], byte(i/32)))
		}
		b := block[i%32]
		vec[i] = float32(int(b)-128) / 128.0
	}
	normalize(vec)
	return vec
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
}
