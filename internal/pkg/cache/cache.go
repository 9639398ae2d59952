package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/astrafabric/astrafabric/internal/pkg/env"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache connects the shared Redis client. A connection failure is not
// fatal, callers degrade to uncached behavior.
func SetupCache() {
	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379")),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Warnf("[Cache] Redis unreachable: %v", err)
		return
	}
	log.Info("[Cache] connected to Redis")
}

func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

func Set(key string, value interface{}, expiration time.Duration) error {
	return GetClient().Set(ctx, key, value, expiration).Err()
}

func Get(key string) (string, error) {
	return GetClient().Get(ctx, key).Result()
}

func GetInt(key string) (int, error) {
	return GetClient().Get(ctx, key).Int()
}

// Incr bumps a numeric key, creating it at 1 when absent.
func Incr(key string) (int64, error) {
	return GetClient().Incr(ctx, key).Result()
}

func Delete(key string) error {
	return GetClient().Del(ctx, key).Err()
}
