package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// OutboundLimiter bounds how many SMTP and LLM calls run at once so a burst of
// requests queues on the limiter instead of piling up on the providers.
type OutboundLimiter struct {
	sem *semaphore.Weighted
}

func NewOutboundLimiter(maxInFlight int64) *OutboundLimiter {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &OutboundLimiter{sem: semaphore.NewWeighted(maxInFlight)}
}

// Do runs fn once a slot is free. Waiting honours ctx.
func (l *OutboundLimiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if l == nil {
		return fn(ctx)
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for outbound slot: %w", err)
	}
	defer l.sem.Release(1)
	return fn(ctx)
}
