package events

import (
	"context"

	"github.com/noah-isme/seeds-admin/internal/resilience"
)

// GuardedPublisher stops calling a failing broker until its breaker lets a
// probe through, so emits do not stall on every request during an outage.
type GuardedPublisher struct {
	Next    Publisher
	Breaker *resilience.Breaker
}

// Publish implements Publisher.
func (g GuardedPublisher) Publish(ctx context.Context, event Envelope) error {
	if g.Breaker == nil {
		return g.Next.Publish(ctx, event)
	}
	return g.Breaker.Do(ctx, func(ctx context.Context) error {
		return g.Next.Publish(ctx, event)
	})
}
