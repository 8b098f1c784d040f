package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sokohub/settlement-service/internal/infrastructure/monitoring"
	"github.com/sokohub/settlement-service/internal/pkg/logger"
)

// Cache holds the orchestrator's coordination state: the per-cart
// settlement lock, the active-intent pointer, and the processed
// external-reference claims that back exactly-once commit across
// duplicate confirmations.
type Cache struct {
	client *redis.Client
	logger *logger.Logger
}

func NewCache(conn *Connection, log *logger.Logger) *Cache {
	return &Cache{
		client: monitoring.InstrumentRedisClient(conn.GetClient()),
		logger: log,
	}
}

func (c *Cache) AcquireSettlementLock(ctx context.Context, settlementID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:settlement:%s", settlementID)

	monitoring.RecordLockAttempt("settlement")
	acquired, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		monitoring.RecordLockFailure("settlement", "redis_error")
		return false, err
	}

	if acquired {
		monitoring.RecordLockSuccess("settlement")
	} else {
		monitoring.RecordLockFailure("settlement", "already_locked")
	}

	return acquired, nil
}

func (c *Cache) ReleaseSettlementLock(ctx context.Context, settlementID string) error {
	key := fmt.Sprintf("lock:settlement:%s", settlementID)
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) SetActiveIntent(ctx context.Context, settlementID, externalReference string, ttl time.Duration) error {
	key := fmt.Sprintf("settlement:%s:intent", settlementID)
	return c.client.Set(ctx, key, externalReference, ttl).Err()
}

func (c *Cache) GetActiveIntent(ctx context.Context, settlementID string) (string, error) {
	key := fmt.Sprintf("settlement:%s:intent", settlementID)

	reference, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}

	return reference, nil
}

func (c *Cache) ClearActiveIntent(ctx context.Context, settlementID string) error {
	key := fmt.Sprintf("settlement:%s:intent", settlementID)
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) MarkReferenceProcessed(ctx context.Context, externalReference string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("payref:%s", externalReference)
	return c.client.SetNX(ctx, key, "1", ttl).Result()
}
