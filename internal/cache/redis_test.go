package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

// Runs only against a real server: REDIS_ADDR=localhost:6379 go test ./internal/cache
func TestRedisCache_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, RedisOptions{Addr: addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	type payload struct {
		Score int `json:"score"`
	}
	ns := "finsight-test:" + time.Now().Format("150405.000000") + ":"
	c := NewRedisCache[payload](client, ns, time.Minute, nil)

	c.Set(ctx, "u1|a", payload{Score: 80})
	c.Set(ctx, "u1|b", payload{Score: 70})
	c.Set(ctx, "u2|a", payload{Score: 60})

	if got, ok := c.Get(ctx, "u1|a"); !ok || got.Score != 80 {
		t.Fatalf("Get = %+v,%v", got, ok)
	}
	if n := c.DeletePrefix(ctx, "u1|"); n != 2 {
		t.Errorf("DeletePrefix removed %d, want 2", n)
	}
	if _, ok := c.Get(ctx, "u1|b"); ok {
		t.Error("expected u1 entries gone")
	}
	c.Delete(ctx, "u2|a")
	if _, ok := c.Get(ctx, "u2|a"); ok {
		t.Error("expected u2 entry gone")
	}
}
