package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

func TestGetOrSetComputesOnceThenServesCached(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	c, err := New(store, nil, nil)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) (string, error) {
		calls++
		return "payload", nil
	}

	value, hit, err := c.GetOrSet(ctx, "catalog:item:1", compute, time.Minute, []string{"catalog_item:1"})
	if err != nil || hit || value != "payload" {
		t.Fatalf("unexpected first result: value=%q hit=%v err=%v", value, hit, err)
	}
	value, hit, err = c.GetOrSet(ctx, "catalog:item:1", compute, time.Minute, []string{"catalog_item:1"})
	if err != nil || !hit || value != "payload" {
		t.Fatalf("unexpected second result: value=%q hit=%v err=%v", value, hit, err)
	}
	if calls != 1 {
		t.Fatalf("expected compute to run once, ran %d times", calls)
	}
}

func TestInvalidateByTagForcesRecompute(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	c, _ := New(store, nil, nil)
	ctx := context.Background()

	c.Set(ctx, "a", "1", time.Minute, []string{"stock"})
	c.Set(ctx, "b", "2", time.Minute, []string{"stock"})
	c.Set(ctx, "c", "3", time.Minute, []string{"other"})

	c.InvalidateByTag(ctx, "stock")

	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatal("expected a to be invalidated")
	}
	if _, ok := c.Get(ctx, "b"); ok {
		t.Fatal("expected b to be invalidated")
	}
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Fatal("expected c to survive unrelated invalidation")
	}
}

func TestGetFailsOpenOnStoreError(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	c, _ := New(store, nil, nil)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "any"); ok {
		t.Fatal("expected store failure to read as a miss")
	}

	calls := 0
	value, hit, err := c.GetOrSet(ctx, "any", func(context.Context) (string, error) {
		calls++
		return "fresh", nil
	}, time.Minute, nil)
	if err != nil || hit || value != "fresh" || calls != 1 {
		t.Fatalf("expected compute fallthrough: value=%q hit=%v err=%v calls=%d", value, hit, err, calls)
	}
}

func TestSetErrorsAreSwallowed(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.setErr = errors.New("readonly replica")
	c, _ := New(store, nil, nil)

	// Must not panic or surface the error.
	c.Set(context.Background(), "k", "v", time.Minute, []string{"t"})
}

type fakeStore struct {
	data   map[string]string
	sets   map[string]map[string]struct{}
	getErr error
	setErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data: make(map[string]string),
		sets: make(map[string]map[string]struct{}),
	}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value.(string)
	return nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
		delete(f.sets, key)
	}
	return nil
}

func (f *fakeStore) SAdd(ctx context.Context, key string, members ...any) error {
	set, ok := f.sets[key]
	if !ok {
		set = make(map[string]struct{})
		f.sets[key] = set
	}
	for _, member := range members {
		set[member.(string)] = struct{}{}
	}
	return nil
}

func (f *fakeStore) SMembers(ctx context.Context, key string) ([]string, error) {
	members := make([]string, 0, len(f.sets[key]))
	for member := range f.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (f *fakeStore) CacheKey(key string) string {
	return "ph:cache:" + key
}

func (f *fakeStore) CacheTagKey(tag string) string {
	return "ph:cache_tag:" + tag
}
