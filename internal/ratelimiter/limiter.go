package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/notifyhub/campaign-mailer/internal/provider"
)

// ProviderLimiters holds one token bucket limiter per email transport.
// Burst is set equal to the rate so no extra burst capacity is allowed
// beyond the configured per-second maximum.
type ProviderLimiters struct {
	limiters map[provider.Kind]*rate.Limiter
}

// New creates a ProviderLimiters with ratePerSec tokens per second per
// transport. A non-positive rate disables throttling.
func New(ratePerSec int) *ProviderLimiters {
	if ratePerSec <= 0 {
		return &ProviderLimiters{}
	}
	r := rate.Limit(ratePerSec)

	limiters := make(map[provider.Kind]*rate.Limiter, len(provider.Kinds))
	for _, k := range provider.Kinds {
		limiters[k] = rate.NewLimiter(r, ratePerSec)
	}
	return &ProviderLimiters{limiters: limiters}
}

// Wait blocks until the transport's limiter grants a token.
// Returns a non-nil error if ctx is cancelled or its deadline would pass
// before a token is available.
func (pl *ProviderLimiters) Wait(ctx context.Context, k provider.Kind) error {
	l, ok := pl.limiters[k]
	if !ok {
		return nil
	}
	return l.Wait(ctx)
}
