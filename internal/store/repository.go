package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/types"
)

// Repo is a generic per-table repository implementing the C1 contract
// (upsert_entity, patch_embedding, patch_summary, scan_missing) shared by
// every entity table. Table-specific helpers (e.g. Issue's extra summary
// fields, QA's dedup-by-normalized-question) live alongside their entity.
type Repo[T any] struct {
	db *gorm.DB
}

// NewRepo constructs a Repo[T] over db. T must be a GORM model with a
// TableName method.
func NewRepo[T any](db *gorm.DB) *Repo[T] {
	return &Repo[T]{db: db}
}

// Upsert implements upsert_entity: insert, or update all columns on a
// conflicting unique key.
func (r *Repo[T]) Upsert(ctx context.Context, row *T, conflictColumn string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: conflictColumn}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return errors.Wrap(errors.KindIntegrity, "store: upsert", err)
	}
	return nil
}

// Get fetches a single row by primary key.
func (r *Repo[T]) Get(ctx context.Context, id int64) (*T, error) {
	var row T
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, errors.Wrap(errors.KindTransient, "store: get", err)
	}
	return &row, nil
}

// GetMany performs a bulk IN(...) fetch, used by the chat engine to expand
// top-K search hits into full content (spec §4.10 step 5).
func (r *Repo[T]) GetMany(ctx context.Context, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []T
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.KindTransient, "store: get many", err)
	}
	return rows, nil
}

// ScanMissing implements scan_missing: rows where vecColumn is null AND
// textColumn is non-null, the shared "(source non-null) AND (target null)"
// predicate used by every enrichment worker (spec §4.6).
func (r *Repo[T]) ScanMissing(ctx context.Context, textColumn, vecColumn string, limit int) ([]T, error) {
	var rows []T
	query := fmt.Sprintf("%s IS NOT NULL AND %s IS NULL", textColumn, vecColumn)
	if err := r.db.WithContext(ctx).Where(query).Limit(limit).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.KindTransient, "store: scan missing", err)
	}
	return rows, nil
}

// ScanMissingSummary returns rows whose llm_summary is null (the source text
// column is entity-specific and checked by the caller via a raw predicate).
func (r *Repo[T]) ScanMissingSummary(ctx context.Context, sourceTextColumn string, limit int) ([]T, error) {
	var rows []T
	query := fmt.Sprintf("%s IS NOT NULL AND llm_summary IS NULL", sourceTextColumn)
	if err := r.db.WithContext(ctx).Where(query).Limit(limit).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.KindTransient, "store: scan missing summary", err)
	}
	return rows, nil
}

// PatchEmbedding implements patch_embedding: set a single vector column for
// one row, committed per-row so workers tolerate partial progress (spec §4.1).
func (r *Repo[T]) PatchEmbedding(ctx context.Context, id int64, column string, vec types.Vector) error {
	var model T
	err := r.db.WithContext(ctx).Model(&model).Where("id = ?", id).Update(column, vec).Error
	if err != nil {
		return errors.Wrap(errors.KindTransient, "store: patch embedding", err)
	}
	return nil
}

// PatchSummary implements patch_summary: set llm_summary for one row.
func (r *Repo[T]) PatchSummary(ctx context.Context, id int64, text string) error {
	var model T
	err := r.db.WithContext(ctx).Model(&model).Where("id = ?", id).Update("llm_summary", text).Error
	if err != nil {
		return errors.Wrap(errors.KindTransient, "store: patch summary", err)
	}
	return nil
}

// PatchFields updates an arbitrary set of columns on one row, used by the
// batch processor for operation-specific fields (e.g. Issue's
// reported_version/stack_trace_file alongside llm_summary).
func (r *Repo[T]) PatchFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	var model T
	err := r.db.WithContext(ctx).Model(&model).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return errors.Wrap(errors.KindTransient, "store: patch fields", err)
	}
	return nil
}

// Delete removes a row by id. Used only by explicit admin operations per
// spec §3's lifecycle note ("destroyed only by explicit admin operations").
func (r *Repo[T]) Delete(ctx context.Context, id int64) error {
	var model T
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model).Error
}

// Exists reports whether a row with id exists, used to validate QA/
// ChatSessionEntity weak references before trusting them (spec §3
// ownership note: "deletion of a subject must cascade or be tolerated").
func (r *Repo[T]) Exists(ctx context.Context, id int64) (bool, error) {
	var model T
	var count int64
	if err := r.db.WithContext(ctx).Model(&model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.Wrap(errors.KindTransient, "store: exists", err)
	}
	return count > 0, nil
}
