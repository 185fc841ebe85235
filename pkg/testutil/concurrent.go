package testutil

import (
	"context"
	"sync"
	"sync/atomic"
)

// RunConcurrent executes fn in parallel goroutines and returns the success
// count plus every error encountered. It replaces the common pattern of
// WaitGroup + atomic counters in tests that hammer the store.
func RunConcurrent(goroutines int, fn func(idx int) error) (successes int32, errs []error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var successCount atomic.Int32
	collected := make([]error, 0)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := fn(idx); err != nil {
				mu.Lock()
				collected = append(collected, err)
				mu.Unlock()
			} else {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	return successCount.Load(), collected
}

// RunConcurrentCtx executes fn in parallel goroutines with context support.
// Useful for tests that need timeout or cancellation handling.
func RunConcurrentCtx(ctx context.Context, goroutines int, fn func(ctx context.Context, idx int) error) (successes int32, errs []error) {
	return RunConcurrent(goroutines, func(idx int) error {
		return fn(ctx, idx)
	})
}
