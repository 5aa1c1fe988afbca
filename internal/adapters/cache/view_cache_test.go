package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/ports"
)

func newTestCache(t *testing.T) (*RedisViewCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisViewCache(client, "test", time.Minute), mr
}

func TestRedisViewCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	owner := uuid.New()

	var got []*entities.Project
	hit, version, err := c.Get(ctx, owner, ports.ViewProjects, &got)
	if err != nil || hit || version != 0 {
		t.Fatalf("empty cache: hit=%v version=%d err=%v", hit, version, err)
	}

	want := []*entities.Project{{ID: uuid.New(), Name: "Launch", Color: "#6366f1", OwnerID: owner}}
	if err := c.Set(ctx, owner, ports.ViewProjects, version, want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	key := "test:views:" + owner.String() + ":projects:0"
	if !mr.Exists(key) {
		t.Fatalf("key %s not written", key)
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}

	hit, _, err = c.Get(ctx, owner, ports.ViewProjects, &got)
	if err != nil || !hit {
		t.Fatalf("Get: hit=%v err=%v", hit, err)
	}
	if len(got) != 1 || got[0].Name != "Launch" {
		t.Errorf("got %+v", got)
	}
}

func TestRedisViewCacheInvalidateIsPerOwner(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	alice, bob := uuid.New(), uuid.New()

	_ = c.Set(ctx, alice, ports.ViewProjects, 0, []string{"a"})
	_ = c.Set(ctx, alice, ports.ViewProjectCounts, 0, []string{"a"})
	_ = c.Set(ctx, bob, ports.ViewProjects, 0, []string{"b"})

	if err := c.Invalidate(ctx, alice, ports.ViewProjects, ports.ViewProjectCounts); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	var dest []string
	if hit, _, _ := c.Get(ctx, alice, ports.ViewProjects, &dest); hit {
		t.Error("alice projects view should be gone")
	}
	if hit, _, _ := c.Get(ctx, alice, ports.ViewProjectCounts, &dest); hit {
		t.Error("alice counts view should be gone")
	}
	if hit, _, _ := c.Get(ctx, bob, ports.ViewProjects, &dest); !hit {
		t.Error("bob's view must survive alice's invalidation")
	}
}

func TestRedisViewCacheDropsWritesFromBeforeInvalidation(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	owner := uuid.New()

	var dest []string
	_, before, err := c.Get(ctx, owner, ports.ViewProjects, &dest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if err := c.Invalidate(ctx, owner, ports.ViewProjects); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if err := c.Set(ctx, owner, ports.ViewProjects, before, []string{"stale"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	hit, after, err := c.Get(ctx, owner, ports.ViewProjects, &dest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit {
		t.Errorf("value written at version %d served at version %d: %v", before, after, dest)
	}
	if after != before+1 {
		t.Errorf("version = %d, want %d", after, before+1)
	}
}

func TestRedisViewCacheUnavailable(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	mr.Close()

	var dest []string
	if _, _, err := c.Get(ctx, uuid.New(), ports.ViewProjects, &dest); err == nil {
		t.Error("expected error from closed redis")
	}
}

func TestNoopCache(t *testing.T) {
	var c ports.ViewCache = NoopCache{}
	ctx := context.Background()

	_ = c.Set(ctx, uuid.New(), ports.ViewProjects, 0, "x")
	var dest string
	if hit, _, err := c.Get(ctx, uuid.New(), ports.ViewProjects, &dest); hit || err != nil {
		t.Errorf("noop Get = %v, %v", hit, err)
	}
}
