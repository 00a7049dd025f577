package store

import (
	"context"

	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/types"
)

// KeywordConflictPolicy resolves how to merge an LLM-extracted keyword into
// an existing row, per spec §4.7's three-way conflict rule.
type KeywordConflictPolicy int

const (
	// PolicyKeepExisting leaves the row untouched (existing category is Glossary).
	PolicyKeepExisting KeywordConflictPolicy = iota
	// PolicyMergeDefinitions calls the LLM merge prompt (existing category is LLM_Extracted).
	PolicyMergeDefinitions
	// PolicyPrependNote prepends a note to the existing definition (any other category).
	PolicyPrependNote
)

// ResolveConflictPolicy classifies an existing keyword's category into the
// merge policy spec §4.7 assigns it.
func ResolveConflictPolicy(existingCategory *string) KeywordConflictPolicy {
	if existingCategory == nil {
		return PolicyPrependNote
	}
	switch *existingCategory {
	case types.KeywordCategoryGlossary:
		return PolicyKeepExisting
	case types.KeywordCategoryLLMExtracted:
		return PolicyMergeDefinitions
	default:
		return PolicyPrependNote
	}
}

// UpsertExtractedKeyword implements the LLM_Extracted keyword upsert of spec
// §4.7: insert if absent, otherwise apply ResolveConflictPolicy via
// mergeDefinition (supplied by the caller, since PolicyMergeDefinitions
// requires an LLM call the store layer must not make itself).
func UpsertExtractedKeyword(
	ctx context.Context, r *Repo[types.Keyword], keyword, definition string,
	mergeDefinition func(existing, incoming string) (string, error),
) error {
	var existing types.Keyword
	err := r.db.WithContext(ctx).Where("keyword = ?", keyword).First(&existing).Error
	if err != nil {
		newRow := types.Keyword{
			Keyword:    keyword,
			Definition: definition,
			Category:   strPtr(types.KeywordCategoryLLMExtracted),
			IsActive:   true,
		}
		if createErr := r.db.WithContext(ctx).Create(&newRow).Error; createErr != nil {
			return errors.Wrap(errors.KindIntegrity, "store: insert extracted keyword", createErr)
		}
		return nil
	}

	switch ResolveConflictPolicy(existing.Category) {
	case PolicyKeepExisting:
		return nil
	case PolicyMergeDefinitions:
		merged, mergeErr := mergeDefinition(existing.Definition, definition)
		if mergeErr != nil {
			return errors.Wrap(errors.KindTransient, "store: merge keyword definition", mergeErr)
		}
		return r.db.WithContext(ctx).Model(&existing).Update("definition", merged).Error
	case PolicyPrependNote:
		note := "Note: also referenced as \"" + definition + "\"\n" + existing.Definition
		return r.db.WithContext(ctx).Model(&existing).Update("definition", note).Error
	default:
		return nil
	}
}

func strPtr(s string) *string { return &s }

// SynonymsOf returns every Synonym row registered against keyword, used to
// compose the Keyword embedding text (spec §4.6: "one vector composed from
// keyword + definition + synonyms").
func SynonymsOf(ctx context.Context, r *Repo[types.Synonym], keyword string) ([]types.Synonym, error) {
	var rows []types.Synonym
	if err := r.db.WithContext(ctx).Where("synonym_of = ?", keyword).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.KindTransient, "store: list synonyms of keyword", err)
	}
	return rows, nil
}
