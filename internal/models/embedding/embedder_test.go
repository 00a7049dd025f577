package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhive/retrieval-engine/internal/config"
)

func TestNewLocalProvider(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: "local", Dimension: 64})
	require.NoError(t, err)
	assert.Equal(t, 64, e.Dimension())
}

func TestNewAPIProviderRequiresBaseURL(t *testing.T) {
	_, err := New(config.EmbeddingConfig{Provider: "api"})
	assert.Error(t, err)
}

func TestNewUnsupportedProvider(t *testing.T) {
	_, err := New(config.EmbeddingConfig{Provider: "quantum"})
	assert.Error(t, err)
}

func TestLocalEmbedderEmptyTextYieldsNil(t *testing.T) {
	e := NewLocal("m", 16, "cpu")
	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestLocalEmbedderDeterministic(t *testing.T) {
	e := NewLocal("m", 32, "cpu")
	v1, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	v3, err := e.Embed(context.Background(), "goodbye world")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v3)
}

func TestLocalEmbedderDimension(t *testing.T) {
	e := NewLocal("m", 48, "cpu")
	v, err := e.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Len(t, v, 48)
}

func TestLocalEmbedderDefaultDimension(t *testing.T) {
	e := NewLocal("m", 0, "cpu")
	assert.Equal(t, 768, e.Dimension())
}

func TestLocalEmbedderUnitNormalized(t *testing.T) {
	e := NewLocal("m", 32, "cpu")
	v, err := e.Embed(context.Background(), "normalize me")
	require.NoError(t, err)

	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-4)
}

func TestLocalEmbedderEmbedMany(t *testing.T) {
	e := NewLocal("m", 16, "cpu")
	out, err := e.EmbedMany(context.Background(), []string{"a", "", "b"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.NotNil(t, out[0])
	assert.Nil(t, out[1])
	assert.NotNil(t, out[2])
}
