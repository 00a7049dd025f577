package store

import (
	"context"

	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/types"
)

// IsValid reports whether key matches an existing ApiKey row (spec §4.11,
// §6 auth header contract).
func IsValid(ctx context.Context, r *Repo[types.ApiKey], key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&types.ApiKey{}).Where("key = ?", key).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(errors.KindTransient, "store: validate api key", err)
	}
	return count > 0, nil
}
