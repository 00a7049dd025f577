package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openhive/retrieval-engine/internal/types"
)

func TestResolveConflictPolicy(t *testing.T) {
	glossary := types.KeywordCategoryGlossary
	extracted := types.KeywordCategoryLLMExtracted
	other := "Custom"

	assert.Equal(t, PolicyPrependNote, ResolveConflictPolicy(nil))
	assert.Equal(t, PolicyKeepExisting, ResolveConflictPolicy(&glossary))
	assert.Equal(t, PolicyMergeDefinitions, ResolveConflictPolicy(&extracted))
	assert.Equal(t, PolicyPrependNote, ResolveConflictPolicy(&other))
}
