package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

const (
	confirmedPackagesKey = "packages:confirmed:v1"
	generationKey        = "packages:confirmed:v1:gen"
)

// RedisPackageListCache keeps the confirmed-package listing in Redis (cache-aside).
// Redis failures degrade to cache misses.
type RedisPackageListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPackageListCache(client *redis.Client, ttl time.Duration) *RedisPackageListCache {
	return &RedisPackageListCache{client: client, ttl: ttl}
}

// Connect pings addr and returns a ready client.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func listingKey(generation int64) string {
	return fmt.Sprintf("%s:%d", confirmedPackagesKey, generation)
}

// generation returns -1 when Redis cannot be read; such a generation is never stored.
func (c *RedisPackageListCache) generation(ctx context.Context) int64 {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		log.Printf("Cache: get %s failed: %v", generationKey, err)
		return -1
	}
	return gen
}

func (c *RedisPackageListCache) Get(ctx context.Context) ([]domain.Package, int64, bool) {
	gen := c.generation(ctx)
	if gen < 0 {
		return nil, gen, false
	}
	key := listingKey(gen)
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false
	}
	if err != nil {
		log.Printf("Cache: get %s failed: %v", key, err)
		return nil, gen, false
	}

	var pkgs []domain.Package
	if err := json.Unmarshal(raw, &pkgs); err != nil {
		log.Printf("Cache: corrupt entry %s: %v", key, err)
		c.client.Del(ctx, key)
		return nil, gen, false
	}
	return pkgs, gen, true
}

func (c *RedisPackageListCache) Set(ctx context.Context, generation int64, pkgs []domain.Package) {
	if generation < 0 {
		return
	}
	raw, err := json.Marshal(pkgs)
	if err != nil {
		log.Printf("Cache: marshal listing: %v", err)
		return
	}
	key := listingKey(generation)
	if err := c.client.SetNX(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("Cache: set %s failed: %v", key, err)
	}
}

func (c *RedisPackageListCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		log.Printf("Cache: invalidate %s failed: %v", generationKey, err)
	}
}
