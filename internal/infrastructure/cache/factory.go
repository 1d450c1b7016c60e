package cache

import (
	"context"
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Counter is a fixed-window usage counter
type Counter interface {
	Consume(ctx context.Context, key string, limit int64, window time.Duration) (int64, bool, error)
	Refund(ctx context.Context, key string) error
	Usage(ctx context.Context, key string) (int64, error)
}

var (
	_ Counter = (*RedisQuotaCounter)(nil)
	_ Counter = (*InMemoryQuotaCounter)(nil)
)

// NewIdempotencyStore returns a Redis-backed store when a client is available
// and an in-memory one otherwise
func NewIdempotencyStore(client *redis.Client, logger *zap.Logger) shared.IdempotencyStore {
	if client != nil {
		logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(client, "")
	}
	logger.Warn("Redis disabled, using in-memory idempotency store. " +
		"Webhook deduplication will not be shared between instances.")
	return NewInMemoryIdempotencyStore()
}

// NewQuotaCounter returns a Redis-backed counter when a client is available
// and an in-memory one otherwise
func NewQuotaCounter(client *redis.Client, logger *zap.Logger) Counter {
	if client != nil {
		return NewRedisQuotaCounter(client)
	}
	logger.Warn("Redis disabled, assistant quotas are counted per instance")
	return NewInMemoryQuotaCounter()
}
