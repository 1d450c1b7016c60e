package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFactories_FallBackWithoutRedis(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	store := NewIdempotencyStore(nil, logger)
	defer store.(*InMemoryIdempotencyStore).Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)

	counter := NewQuotaCounter(nil, logger)
	assert.IsType(t, &InMemoryQuotaCounter{}, counter)

	assert.Equal(t, 2, logs.Len())
}
