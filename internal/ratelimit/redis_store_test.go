package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStoreFixedWindow(t *testing.T) {
	client := newTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()
	key := "test:" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, redisKeyPrefix+key) })

	for i := 1; i <= 3; i++ {
		d, err := store.Take(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatalf("take %d: %v", i, err)
		}
		if !d.Allowed || d.Remaining != 3-i {
			t.Fatalf("take %d: unexpected decision %+v", i, d)
		}
	}
	d, err := store.Take(ctx, key, 3, time.Minute)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if d.Allowed {
		t.Fatalf("fourth request should be rejected")
	}

	if err := store.Refund(ctx, key, d.ResetAt); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if d, _ := store.Take(ctx, key, 3, time.Minute); !d.Allowed {
		t.Fatalf("refunded slot was not reusable")
	}
}
