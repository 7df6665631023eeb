package embed

import (
	"context"
	"errors"
	"testing"
)

func TestWithBatchRetrySucceedsEventually(t *testing.T) {
	attempts := 0
	err := withBatchRetry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestWithBatchRetryExhausts(t *testing.T) {
	attempts := 0
	wantErr := errors.New("permanent")
	err := withBatchRetry(context.Background(), func() error {
		attempts++
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if attempts != maxBatchRetries {
		t.Errorf("expected %d attempts, got %d", maxBatchRetries, attempts)
	}
}

func TestWithBatchRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := withBatchRetry(ctx, func() error {
		attempts++
		return errors.New("transient")
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if attempts != 1 {
		t.Errorf("expected to stop after the first failed attempt once context is cancelled, got %d attempts", attempts)
	}
}
