package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mfadhilr/edupay/internal/common/config"
	"github.com/mfadhilr/edupay/internal/common/logger"
)

type Client struct {
	*redis.Client
	logger *logger.Logger
}

func Connect(cfg config.RedisConfig, log *logger.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Infof("Connected to Redis at %s:%s", cfg.Host, cfg.Port)
	return &Client{Client: rdb, logger: log}, nil
}

// AcquireLock takes a distributed lock via SET NX. Returns false without error
// when another holder owns the lock.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.SetNX(ctx, "lock:"+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return ok, nil
}

func (c *Client) ReleaseLock(ctx context.Context, key string) {
	if err := c.Del(ctx, "lock:"+key).Err(); err != nil {
		c.logger.Warnf("Failed to release lock %s: %v", key, err)
	}
}

// CheckIdempotency reports whether the key was already used.
func (c *Client) CheckIdempotency(ctx context.Context, key string) (bool, error) {
	n, err := c.Exists(ctx, "idem:"+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return n > 0, nil
}

func (c *Client) SetIdempotency(ctx context.Context, key string, ttl time.Duration) error {
	return c.Set(ctx, "idem:"+key, "1", ttl).Err()
}

func (c *Client) CacheWalletBalance(ctx context.Context, userID, balance string, ttl time.Duration) error {
	return c.Set(ctx, "wallet:balance:"+userID, balance, ttl).Err()
}

func (c *Client) GetCachedWalletBalance(ctx context.Context, userID string) (string, error) {
	val, err := c.Get(ctx, "wallet:balance:"+userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *Client) InvalidateWalletBalance(ctx context.Context, userID string) {
	if err := c.Del(ctx, "wallet:balance:"+userID).Err(); err != nil {
		c.logger.Warnf("Failed to invalidate balance cache for %s: %v", userID, err)
	}
}
