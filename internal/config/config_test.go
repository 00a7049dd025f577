package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxIdleTime)
	assert.Equal(t, "local", cfg.Embedding.Provider)
	assert.Equal(t, 768, cfg.Embedding.Dimension)
	assert.True(t, cfg.Reranker.Enabled)
	assert.Equal(t, 60, cfg.LLM.RPM)
	assert.Equal(t, 100, cfg.Batch.EntitiesPerBatch)
	assert.Equal(t, 30, cfg.Worker.PollIntervalSeconds)
	assert.Equal(t, 3, cfg.Chat.MinInputLength)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10, cfg.RateLimit.SimilarityRPM)
}
