package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yatube/backend/internal/logger"
	"go.uber.org/zap"
)

// KeyPrefix namespaces every key this process writes, so Clear never touches
// data that belongs to other applications sharing the Redis database
const KeyPrefix = "yatube:"

// RedisClient wraps the redis.Client with centralized connection pooling
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates and initializes a Redis client with connection pooling
func NewRedisClient(host string, port string, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorWithFields("Failed to connect to Redis", err)
		_ = client.Close()
		return nil, err
	}

	logger.Log.Info("Redis client connected",
		zap.String("address", addr),
	)

	return &RedisClient{client: client}, nil
}

// Close closes the Redis connection gracefully
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// Ping checks the connection
func (rc *RedisClient) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Get retrieves a value; redis.Nil is reported as a miss
func (rc *RedisClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := rc.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores a value with expiration
func (rc *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return rc.client.Set(ctx, KeyPrefix+key, value, ttl).Err()
}

// Clear deletes every key under KeyPrefix. SCAN keeps Redis responsive on
// large keyspaces where KEYS would block.
func (rc *RedisClient) Clear(ctx context.Context) error {
	var cursor uint64
	var deleted int64
	for {
		keys, next, err := rc.client.Scan(ctx, cursor, KeyPrefix+"*", 500).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			n, err := rc.client.Del(ctx, keys...).Result()
			if err != nil {
				return err
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	logger.Log.Debug("Redis cache cleared", zap.Int64("keys", deleted))
	return nil
}

func (rc *RedisClient) Name() string {
	return "redis"
}

// IncrWindow increments a fixed-window counter and starts its expiry on the
// first hit. It returns the count and the time left in the window.
func (rc *RedisClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	fullKey := KeyPrefix + key

	pipe := rc.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	ttl := pipe.TTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	return incr.Val(), ttl.Val(), nil
}
