package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript increments a counter that expires after the window and refuses
// the increment once the limit is reached
var consumeScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
if n > tonumber(ARGV[1]) then
  redis.call('DECR', KEYS[1])
  return {n - 1, 0}
end
return {n, 1}
`)

const quotaKeyPrefix = "bizdesk:quota:"

// RedisQuotaCounter counts usage in fixed windows shared by all instances
type RedisQuotaCounter struct {
	client *redis.Client
}

// NewRedisQuotaCounter creates a counter on a shared Redis client
func NewRedisQuotaCounter(client *redis.Client) *RedisQuotaCounter {
	return &RedisQuotaCounter{client: client}
}

// Consume takes one unit from the key's budget. It returns the usage after the
// call and whether the unit was granted.
func (c *RedisQuotaCounter) Consume(ctx context.Context, key string, limit int64, window time.Duration) (int64, bool, error) {
	res, err := consumeScript.Run(ctx, c.client, []string{quotaKeyPrefix + key}, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("failed to consume quota: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("unexpected quota script result %v", res)
	}
	return res[0], res[1] == 1, nil
}

// Refund gives back one unit, for example when the guarded call failed
func (c *RedisQuotaCounter) Refund(ctx context.Context, key string) error {
	if err := c.client.Decr(ctx, quotaKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to refund quota: %w", err)
	}
	return nil
}

// Usage returns the current count for the key
func (c *RedisQuotaCounter) Usage(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Get(ctx, quotaKeyPrefix+key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota: %w", err)
	}
	return n, nil
}

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

// InMemoryQuotaCounter is the single-process fallback used without Redis
type InMemoryQuotaCounter struct {
	mu      sync.Mutex
	entries map[string]counterEntry
	now     func() time.Time
}

// NewInMemoryQuotaCounter creates an empty counter
func NewInMemoryQuotaCounter() *InMemoryQuotaCounter {
	return &InMemoryQuotaCounter{
		entries: make(map[string]counterEntry),
		now:     time.Now,
	}
}

func (c *InMemoryQuotaCounter) current(key string) counterEntry {
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return counterEntry{}
	}
	return e
}

// Consume takes one unit from the key's budget
func (c *InMemoryQuotaCounter) Consume(_ context.Context, key string, limit int64, window time.Duration) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.current(key)
	if e.count >= limit {
		return e.count, false, nil
	}
	if e.count == 0 {
		e.expiresAt = c.now().Add(window)
	}
	e.count++
	c.entries[key] = e
	return e.count, true, nil
}

// Refund gives back one unit
func (c *InMemoryQuotaCounter) Refund(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.current(key)
	if e.count > 0 {
		e.count--
		c.entries[key] = e
	}
	return nil
}

// Usage returns the current count for the key
func (c *InMemoryQuotaCounter) Usage(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current(key).count, nil
}
