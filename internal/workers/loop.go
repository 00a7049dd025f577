// Package workers implements the C6 Enrichment Workers: a small set of
// long-running cooperative loops, one per concern (spec §4.6).
package workers

import (
	"context"
	"time"

	"github.com/openhive/retrieval-engine/internal/logger"
)

// LoopConfig is the shared contract every cooperative loop runs under:
// a bounded page size, a short sleep between empty cycles, and an
// exponential-capped backoff after repeated failures (spec §4.6, §5).
type LoopConfig struct {
	Name           string
	PageSize       int
	PollInterval   time.Duration
	BackoffSeconds time.Duration
	MaxBackoff     time.Duration
}

func (c LoopConfig) withDefaults() LoopConfig {
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.BackoffSeconds <= 0 {
		c.BackoffSeconds = 2 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 2 * time.Minute
	}
	return c
}

// Cycle is one scan-and-process pass of a loop. It returns the number of
// entities it processed (for logging) and an error if the pass failed; a
// zero count with a nil error means the scan found nothing to do.
type Cycle func(ctx context.Context) (processed int, err error)

// Run drives cycle forever until ctx is cancelled, implementing the
// shared loop contract: short sleep when a cycle finds nothing, capped
// exponential backoff after consecutive failures, reset on first success,
// and graceful shutdown when ctx is done (spec §4.6, §5 "graceful shutdown
// on interrupt that rolls back and closes the database session" — the
// rollback/close obligation belongs to cycle itself, since only it holds
// the transaction).
func Run(ctx context.Context, cfg LoopConfig, cycle Cycle) {
	cfg = cfg.withDefaults()
	backoff := cfg.BackoffSeconds

	for {
		select {
		case <-ctx.Done():
			logger.Infof(ctx, "worker %s: shutting down", cfg.Name)
			return
		default:
		}

		processed, err := cycle(ctx)
		if err != nil {
			logger.Warnf(ctx, "worker %s: cycle failed: %v (backoff %s)", cfg.Name, err, backoff)
			if !sleepOrDone(ctx, backoff) {
				return
			}
			backoff *= 2
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
			continue
		}

		backoff = cfg.BackoffSeconds
		if processed > 0 {
			logger.Infof(ctx, "worker %s: processed %d", cfg.Name, processed)
			continue
		}

		if !sleepOrDone(ctx, cfg.PollInterval) {
			return
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
