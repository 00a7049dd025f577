package store

import (
	"context"

	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/types"
)

// TransitionStatus applies a BatchProcess status change, rejecting any
// transition that violates the monotonic state machine of spec §3/§4.7.
func TransitionStatus(ctx context.Context, r *Repo[types.BatchProcess], batchID string, next types.BatchStatus, errMsg *string) error {
	var row types.BatchProcess
	if err := r.db.WithContext(ctx).Where("batch_id = ?", batchID).First(&row).Error; err != nil {
		return errors.Wrap(errors.KindTransient, "store: load batch process", err)
	}
	if !types.IsLegalTransition(row.Status, next) {
		return errors.New(errors.KindInternal, "illegal batch status transition "+string(row.Status)+" -> "+string(next))
	}
	updates := map[string]interface{}{"status": next}
	if errMsg != nil {
		updates["error_message"] = errMsg
	}
	return r.db.WithContext(ctx).Model(&row).Updates(updates).Error
}

// InFlight returns every BatchProcess row in {sent, in_progress, finalizing},
// the set the batch monitor loop polls each cycle (spec §4.7 step 1).
func InFlight(ctx context.Context, r *Repo[types.BatchProcess]) ([]types.BatchProcess, error) {
	var rows []types.BatchProcess
	err := r.db.WithContext(ctx).
		Where("status IN ?", []types.BatchStatus{types.BatchSent, types.BatchInProgress, types.BatchFinalizing}).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.KindTransient, "store: list in-flight batches", err)
	}
	return rows, nil
}
