package ratelimiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/notifyhub/campaign-mailer/internal/provider"
	"github.com/notifyhub/campaign-mailer/internal/ratelimiter"
)

func TestProviderLimiters_DisabledNeverBlocks(t *testing.T) {
	l := ratelimiter.New(0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	for i := 0; i < 1000; i++ {
		if err := l.Wait(ctx, provider.ManagedRelay); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

// TestProviderLimiters_PerProviderBuckets verifies that draining one
// transport's bucket does not throttle another.
func TestProviderLimiters_PerProviderBuckets(t *testing.T) {
	l := ratelimiter.New(1)
	ctx := context.Background()

	if err := l.Wait(ctx, provider.ManagedRelay); err != nil {
		t.Fatal(err)
	}

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := l.Wait(short, provider.ManagedRelay); err == nil {
		t.Fatal("expected the drained bucket to refuse within the deadline")
	}
	if err := l.Wait(short, provider.TransactionalAPI); err != nil {
		t.Fatalf("other transport should not be throttled: %v", err)
	}
}
