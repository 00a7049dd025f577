package store

import (
	"context"
	"regexp"
	"strings"

	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/types"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeQuestion implements the spec §3 uniqueness target:
// (source_kind, source_id, normalized(question)). Normalization lowercases
// and collapses whitespace so near-identical phrasing still dedups.
func NormalizeQuestion(question string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ToLower(question), " "))
}

// InsertQADeduped inserts a QA row unless a case-insensitive
// normalized-question duplicate already exists for the same source (spec
// §4.7 "questions" operation: "deduplicating by case-insensitive normalized
// question text within the same source").
func InsertQADeduped(ctx context.Context, r *Repo[types.QA], qa *types.QA) (inserted bool, err error) {
	normalized := NormalizeQuestion(qa.Question)

	var existing []types.QA
	dbErr := r.db.WithContext(ctx).
		Where("source_kind = ? AND source_id = ?", qa.SourceKind, qa.SourceID).
		Find(&existing).Error
	if dbErr != nil {
		return false, errors.Wrap(errors.KindTransient, "store: check qa dedup", dbErr)
	}
	for _, e := range existing {
		if NormalizeQuestion(e.Question) == normalized {
			return false, nil
		}
	}

	if err := r.db.WithContext(ctx).Create(qa).Error; err != nil {
		return false, errors.Wrap(errors.KindIntegrity, "store: insert qa", err)
	}
	return true, nil
}

// ResolveSourceExists reports whether the QA's weak {kind,id} reference still
// points at a live row, per spec §3's "A QA row exists only if its
// (source_kind, source_id) still exists" invariant enforcement at read time.
func ResolveSourceExists(ctx context.Context, s *Store, ref types.SourceRef) (bool, error) {
	switch ref.Kind {
	case types.SourceIssue:
		return s.Issues.Exists(ctx, ref.ID)
	case types.SourceForum:
		return s.Forum.Exists(ctx, ref.ID)
	case types.SourceDoc:
		return s.Docs.Exists(ctx, ref.ID)
	default:
		return false, nil
	}
}
