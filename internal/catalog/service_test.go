package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/calebmonroe/printhaus-backend/pkg/cache"
	"github.com/calebmonroe/printhaus-backend/pkg/config"
	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
)

type memoryStore struct {
	values map[string]string
	sets   map[string]map[string]struct{}
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		values: map[string]string{},
		sets:   map[string]map[string]struct{}{},
	}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (m *memoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
		delete(m.sets, key)
	}
	return nil
}

func (m *memoryStore) SAdd(ctx context.Context, key string, members ...any) error {
	set, ok := m.sets[key]
	if !ok {
		set = map[string]struct{}{}
		m.sets[key] = set
	}
	for _, member := range members {
		set[member.(string)] = struct{}{}
	}
	return nil
}

func (m *memoryStore) SMembers(ctx context.Context, key string) ([]string, error) {
	var members []string
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (m *memoryStore) CacheKey(key string) string    { return "ph:cache:" + key }
func (m *memoryStore) CacheTagKey(tag string) string { return "ph:cache:tag:" + tag }

type countingFinder struct {
	item  *models.CatalogItem
	err   error
	calls int
}

func (f *countingFinder) FindItemByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.item, nil
}

func newCatalogTestService(t *testing.T, finder itemFinder) (Service, *cache.Cache) {
	t.Helper()

	c, err := cache.New(newMemoryStore(), nil, nil)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	svc, err := NewService(finder, c, config.CacheConfig{CatalogTTL: time.Minute})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, c
}

func TestGetItemCachesSecondRead(t *testing.T) {
	t.Parallel()

	finder := &countingFinder{item: &models.CatalogItem{
		ID:             uuid.New(),
		Title:          "Harbor at Dusk",
		BaseRate:       decimal.RequireFromString("0.10"),
		AvailableStock: 10,
	}}
	svc, _ := newCatalogTestService(t, finder)
	ctx := context.Background()

	dto, hit, err := svc.GetItem(ctx, finder.item.ID)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if hit {
		t.Fatal("first read must miss")
	}
	if dto.Title != "Harbor at Dusk" || dto.BaseRate != "0.1" {
		t.Fatalf("unexpected dto: %+v", dto)
	}

	dto, hit, err = svc.GetItem(ctx, finder.item.ID)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if !hit {
		t.Fatal("second read must hit")
	}
	if dto.AvailableStock != 10 {
		t.Fatalf("unexpected stock: %d", dto.AvailableStock)
	}
	if finder.calls != 1 {
		t.Fatalf("expected 1 repo call, got %d", finder.calls)
	}
}

func TestGetItemInvalidateByTagRecomputes(t *testing.T) {
	t.Parallel()

	finder := &countingFinder{item: &models.CatalogItem{
		ID:             uuid.New(),
		Title:          "Harbor at Dusk",
		BaseRate:       decimal.RequireFromString("0.10"),
		AvailableStock: 10,
	}}
	svc, c := newCatalogTestService(t, finder)
	ctx := context.Background()

	if _, _, err := svc.GetItem(ctx, finder.item.ID); err != nil {
		t.Fatalf("prime: %v", err)
	}

	c.InvalidateByTag(ctx, ItemTag(finder.item.ID))
	finder.item.AvailableStock = 7

	dto, hit, err := svc.GetItem(ctx, finder.item.ID)
	if err != nil {
		t.Fatalf("read after invalidate: %v", err)
	}
	if hit {
		t.Fatal("read after invalidate must miss")
	}
	if dto.AvailableStock != 7 {
		t.Fatalf("expected refreshed stock 7, got %d", dto.AvailableStock)
	}
	if finder.calls != 2 {
		t.Fatalf("expected 2 repo calls, got %d", finder.calls)
	}
}

func TestGetItemNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newCatalogTestService(t, &countingFinder{err: gorm.ErrRecordNotFound})

	_, _, err := svc.GetItem(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
