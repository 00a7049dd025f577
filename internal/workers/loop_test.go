package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoopConfigWithDefaults(t *testing.T) {
	c := LoopConfig{}.withDefaults()
	assert.Equal(t, 50, c.PageSize)
	assert.Equal(t, 5*time.Second, c.PollInterval)
	assert.Equal(t, 2*time.Second, c.BackoffSeconds)
	assert.Equal(t, 2*time.Minute, c.MaxBackoff)
}

func TestLoopConfigWithDefaultsPreservesExplicit(t *testing.T) {
	c := LoopConfig{PageSize: 10, PollInterval: time.Second, BackoffSeconds: time.Millisecond, MaxBackoff: time.Minute}.withDefaults()
	assert.Equal(t, 10, c.PageSize)
	assert.Equal(t, time.Second, c.PollInterval)
	assert.Equal(t, time.Millisecond, c.BackoffSeconds)
	assert.Equal(t, time.Minute, c.MaxBackoff)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32

	done := make(chan struct{})
	go func() {
		Run(ctx, LoopConfig{Name: "test", PollInterval: time.Millisecond}, func(ctx context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			return 0, nil
		})
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
	assert.Greater(t, atomic.LoadInt32(&calls), int32(0))
}

func TestRunResetsBackoffAfterSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var n int32
	done := make(chan struct{})
	go func() {
		Run(ctx, LoopConfig{Name: "test", PollInterval: time.Millisecond, BackoffSeconds: time.Millisecond, MaxBackoff: 10 * time.Millisecond}, func(ctx context.Context) (int, error) {
			count := atomic.AddInt32(&n, 1)
			if count == 1 {
				return 0, errors.New("transient")
			}
			if count >= 3 {
				cancel()
			}
			return 1, nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&n), int32(3))
}
