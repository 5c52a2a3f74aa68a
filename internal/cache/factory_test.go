package cache

import (
	"context"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, closeFn, err := New[string](ctx, Options{Backend: "memory", Size: 2, TTL: time.Minute}, nil)
	if err != nil {
		t.Fatalf("New(memory): %v", err)
	}
	defer closeFn()
	if _, ok := c.(Cleaner); !ok {
		t.Error("memory cache should be sweepable")
	}
	c.Set(ctx, "k", "v")
	if v, ok := c.Get(ctx, "k"); !ok || v != "v" {
		t.Errorf("Get = %q,%v", v, ok)
	}

	if _, _, err := New[string](ctx, Options{Backend: "memcached"}, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}
