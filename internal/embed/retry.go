package embed

import (
	"context"
	"math/rand"
	"time"
)

const (
	maxBatchRetries  = 3
	retryBackoffBase = 500 * time.Millisecond
)

// withBatchRetry runs fn up to maxBatchRetries times, applying exponential
// backoff with jitter between attempts (§4.4 "Batching": "On provider
// 429/5xx: exponential backoff with jitter; per-batch retry up to 3").
func withBatchRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxBatchRetries; attempt++ {
		if attempt > 0 {
			backoff := retryBackoffBase * time.Duration(1<<uint(attempt-1))
			jitter := time.Duration(rand.Int63n(int64(backoff) + 1))
			select {
			case <-time.After(backoff/2 + jitter/2):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
