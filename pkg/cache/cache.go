package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"propertyhub_backend/pkg/config"
)

const keyPrefix = "propertyhub:"

// Cache is a thin JSON cache over Redis. A Cache without a client (Redis
// disabled or unreachable) turns every call into a no-op miss.
type Cache struct {
	client *redis.Client
}

func New(cfg config.RedisConfig) *Cache {
	if !cfg.Enabled {
		return &Cache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Printf("Redis unavailable, caching disabled: %v", err)
		return &Cache{}
	}

	log.Printf("Connected to Redis at %s (db=%d)", cfg.Addr, cfg.DB)
	return &Cache{client: client}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON decodes the cached value into dst and reports whether it was found.
func (c *Cache) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	if !c.Enabled() {
		return false
	}

	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Redis GET error for key %s: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("Could not decode cached value for key %s: %v", key, err)
		return false
	}
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !c.Enabled() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("Could not encode cache value for key %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		log.Printf("Redis SET error for key %s: %v", key, err)
	}
}

// DeletePrefix removes every key starting with prefix.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) {
	if !c.Enabled() {
		return
	}

	iter := c.client.Scan(ctx, 0, keyPrefix+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("Redis SCAN error for prefix %s: %v", prefix, err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("Redis DEL error for prefix %s: %v", prefix, err)
	}
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
