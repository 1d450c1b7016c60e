package shared

import (
	"context"
	"time"
)

// IdempotencyStore records externally delivered event IDs (payment webhooks)
// so a redelivered event is acknowledged without being applied twice.
type IdempotencyStore interface {
	// MarkProcessed marks an event as processed with a TTL.
	// Returns true if the event was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// Release forgets an event so a later redelivery is processed again.
	Release(ctx context.Context, eventID string) error

	// IsProcessed checks if an event has already been processed
	IsProcessed(ctx context.Context, eventID string) (bool, error)
}

// DefaultIdempotencyTTL is how long processed event IDs are remembered.
// Stripe retries undelivered events for up to three days.
const DefaultIdempotencyTTL = 72 * time.Hour
