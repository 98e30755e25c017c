package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/medsearch-ai/medsearch/config"
)

func TestLRU_SetGet(t *testing.T) {
	c := NewLRU(4, time.Minute)
	ctx := context.Background()

	c.SetWithTTL(ctx, "k", []byte("v"), 0)
	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Fatalf("expected hit with v, got ok=%v %q", ok, got)
	}
	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestLRU_EvictsOldestAtCapacity(t *testing.T) {
	c := NewLRU(2, time.Minute)
	ctx := context.Background()

	c.SetWithTTL(ctx, "a", []byte("1"), 0)
	c.SetWithTTL(ctx, "b", []byte("2"), 0)
	c.Get(ctx, "a") // touch a so b is oldest
	c.SetWithTTL(ctx, "c", []byte("3"), 0)

	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("expected least-recently-used key evicted")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Error("expected recently touched key retained")
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := NewLRU(4, time.Minute)
	ctx := context.Background()

	c.SetWithTTL(ctx, "k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestLRU_Purge(t *testing.T) {
	c := NewLRU(4, time.Minute)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		c.SetWithTTL(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0)
	}
	c.Purge(ctx)
	for i := 0; i < 3; i++ {
		if _, ok := c.Get(ctx, fmt.Sprintf("k%d", i)); ok {
			t.Fatalf("expected k%d gone after purge", i)
		}
	}
}

func TestRedisCache(t *testing.T) {
	srv := miniredis.RunT(t)
	c, err := NewRedis(config.CacheConfig{Provider: "redis", RedisAddr: srv.Addr()})
	if err != nil {
		t.Fatalf("redis cache: %v", err)
	}
	ctx := context.Background()

	c.SetWithTTL(ctx, "embedding:abc", []byte(`[0.1,0.2]`), time.Minute)
	got, ok := c.Get(ctx, "embedding:abc")
	if !ok || string(got) != `[0.1,0.2]` {
		t.Fatalf("expected hit, got ok=%v %q", ok, got)
	}

	srv.FastForward(2 * time.Minute)
	if _, ok := c.Get(ctx, "embedding:abc"); ok {
		t.Error("expected entry expired after TTL")
	}

	c.SetWithTTL(ctx, "search:xyz", []byte("v"), time.Minute)
	c.Purge(ctx)
	if _, ok := c.Get(ctx, "search:xyz"); ok {
		t.Error("expected purge to clear the db")
	}
}

func TestRedisCache_ConnectionFailure(t *testing.T) {
	if _, err := NewRedis(config.CacheConfig{Provider: "redis", RedisAddr: "127.0.0.1:1"}); err == nil {
		t.Error("expected connection error")
	}
}

func TestNew_ProviderSelection(t *testing.T) {
	c, err := New(config.CacheConfig{Provider: "memory", Capacity: 8, SearchResultTTLSec: 60})
	if err != nil {
		t.Fatalf("memory cache: %v", err)
	}
	if c == nil {
		t.Fatal("expected cache instance")
	}
}
