// Package rdx wraps the shared Redis connection. Every caller treats
// the cache as best-effort: a miss or a connection error falls through
// to the authoritative path.
package rdx

import (
	"context"
	"log"
	"os"
	"time"

	"farm2market/globals"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func Init() {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("Invalid REDIS_URL %q: %v; using defaults", url, err)
		opts = &redis.Options{Addr: "localhost:6379"}
	}

	Conn = redis.NewClient(opts)

	if err := Conn.Ping(globals.Ctx).Err(); err != nil {
		log.Printf("Redis unreachable at %s: %v; caching disabled until it recovers", opts.Addr, err)
	}
}

func RdxGet(ctx context.Context, key string) (string, bool) {
	if Conn == nil {
		return "", false
	}
	val, err := Conn.Get(ctx, key).Result()
	if err != nil || val == "" {
		return "", false
	}
	return val, true
}

func RdxSet(ctx context.Context, key, val string, ttl time.Duration) {
	if Conn == nil {
		return
	}
	if err := Conn.Set(ctx, key, val, ttl).Err(); err != nil {
		log.Printf("Redis set failed for %s: %v", key, err)
	}
}

func RdxDel(ctx context.Context, keys ...string) {
	if Conn == nil {
		return
	}
	if err := Conn.Del(ctx, keys...).Err(); err != nil {
		log.Printf("Redis delete failed: %v", err)
	}
}
