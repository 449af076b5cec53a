package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/calebmonroe/printhaus-backend/internal/catalog"
	"github.com/calebmonroe/printhaus-backend/internal/inventory"
	"github.com/calebmonroe/printhaus-backend/internal/orders"
	"github.com/calebmonroe/printhaus-backend/pkg/cache"
	"github.com/calebmonroe/printhaus-backend/pkg/db/models"
	"github.com/calebmonroe/printhaus-backend/pkg/enums"
	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fakeGuard struct {
	entries map[string]string
	setErr  error
	deleted []string
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{entries: map[string]string{}}
}

func (g *fakeGuard) Get(ctx context.Context, key string) (string, error) {
	value, ok := g.entries[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (g *fakeGuard) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if g.setErr != nil {
		return false, g.setErr
	}
	if _, ok := g.entries[key]; ok {
		return false, nil
	}
	g.entries[key] = value.(string)
	return true, nil
}

func (g *fakeGuard) IdempotencyKey(scope, id string) string {
	return "ph:idempotency:" + scope + ":" + id
}

func (g *fakeGuard) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(g.entries, key)
		g.deleted = append(g.deleted, key)
	}
	return nil
}

type cacheStore struct {
	values map[string]string
	sets   map[string]map[string]struct{}
}

func newCacheStore() *cacheStore {
	return &cacheStore{values: map[string]string{}, sets: map[string]map[string]struct{}{}}
}

func (m *cacheStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (m *cacheStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *cacheStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
		delete(m.sets, key)
	}
	return nil
}

func (m *cacheStore) SAdd(ctx context.Context, key string, members ...any) error {
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

func (m *cacheStore) SMembers(ctx context.Context, key string) ([]string, error) {
	var members []string
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (m *cacheStore) CacheKey(key string) string    { return "ph:cache:" + key }
func (m *cacheStore) CacheTagKey(tag string) string { return "ph:cache:tag:" + tag }

type webhookFixture struct {
	db     *gorm.DB
	svc    Service
	guard  *fakeGuard
	store  *cacheStore
	cache  *cache.Cache
	orders orders.Repository
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.CatalogItem{}, &models.Order{}, &models.OrderLine{}, &models.PaymentEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	guard := newFakeGuard()
	store := newCacheStore()
	c, err := cache.New(store, nil, nil)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	orderRepo := orders.NewRepository(db)

	svc, err := NewService(
		orderRepo, orders.NewPaymentEventRepository(db), inventory.NewLedger(db),
		c, guard, gormTxRunner{db: db}, time.Hour, nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &webhookFixture{db: db, svc: svc, guard: guard, store: store, cache: c, orders: orderRepo}
}

func (f *webhookFixture) seedOrder(t *testing.T, status enums.OrderStatus, intentID string, itemStock, qty int) (*models.Order, uuid.UUID) {
	t.Helper()

	item := models.CatalogItem{
		ID:             uuid.New(),
		Title:          "Harbor at Dusk",
		BaseRate:       decimal.RequireFromString("0.10"),
		AvailableStock: itemStock,
	}
	if err := f.db.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}

	order := models.Order{
		ID:             uuid.New(),
		OwnerID:        uuid.New(),
		SourceCartID:   uuid.New(),
		Status:         status,
		Currency:       "USD",
		TotalCents:     42000,
		IdempotencyKey: uuid.NewString(),
	}
	if intentID != "" {
		order.PaymentIntentID = &intentID
	}
	if err := f.db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	line := models.OrderLine{
		ID:                 uuid.New(),
		OrderID:            order.ID,
		CatalogItemID:      item.ID,
		MaterialID:         uuid.New(),
		WidthCm:            decimal.RequireFromString("50"),
		HeightCm:           decimal.RequireFromString("70"),
		MaterialMultiplier: decimal.RequireFromString("1.2"),
		BaseRate:           decimal.RequireFromString("0.10"),
		Quantity:           qty,
		UnitPriceCents:     42000,
		LineTotalCents:     int64(qty) * 42000,
	}
	if err := f.db.Create(&line).Error; err != nil {
		t.Fatalf("seed order line: %v", err)
	}
	return &order, item.ID
}

func (f *webhookFixture) orderStatus(t *testing.T, orderID uuid.UUID) enums.OrderStatus {
	t.Helper()

	var order models.Order
	if err := f.db.First(&order, "id = ?", orderID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	return order.Status
}

func (f *webhookFixture) itemStock(t *testing.T, itemID uuid.UUID) int {
	t.Helper()

	var item models.CatalogItem
	if err := f.db.First(&item, "id = ?", itemID).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	return item.AvailableStock
}

func (f *webhookFixture) eventCount(t *testing.T) int64 {
	t.Helper()

	var count int64
	if err := f.db.Model(&models.PaymentEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return count
}

func TestApplyEventPaymentSucceeded(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	order, itemID := f.seedOrder(t, enums.OrderStatusPendingPayment, "pi_1", 5, 2)

	// Prime a cached projection of the item so invalidation is observable.
	f.cache.Set(context.Background(), "catalog_item:"+itemID.String(), "{}", time.Minute,
		[]string{catalog.ItemTag(itemID)})

	err := f.svc.ApplyEvent(context.Background(), Event{
		EventID: "evt_1", Type: string(enums.PaymentEventSucceeded), IntentID: "pi_1",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if status := f.orderStatus(t, order.ID); status != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", status)
	}
	if count := f.eventCount(t); count != 1 {
		t.Fatalf("expected 1 event row, got %d", count)
	}
	if _, ok := f.store.values["ph:cache:catalog_item:"+itemID.String()]; ok {
		t.Fatal("cached item projection must be invalidated")
	}
	// Success keeps the reservation; stock stays decremented.
	if got := f.itemStock(t, itemID); got != 5 {
		t.Fatalf("expected stock untouched at 5, got %d", got)
	}
}

func TestApplyEventPaymentFailedReleasesStock(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	order, itemID := f.seedOrder(t, enums.OrderStatusPendingPayment, "pi_2", 3, 2)

	err := f.svc.ApplyEvent(context.Background(), Event{
		EventID: "evt_2", Type: string(enums.PaymentEventFailed), IntentID: "pi_2",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if status := f.orderStatus(t, order.ID); status != enums.OrderStatusPaymentFailed {
		t.Fatalf("expected payment_failed, got %s", status)
	}
	if got := f.itemStock(t, itemID); got != 5 {
		t.Fatalf("expected stock released to 5, got %d", got)
	}
}

func TestApplyEventDuplicateIsNoOp(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	order, itemID := f.seedOrder(t, enums.OrderStatusPendingPayment, "pi_3", 3, 1)
	event := Event{EventID: "evt_3", Type: string(enums.PaymentEventFailed), IntentID: "pi_3"}

	if err := f.svc.ApplyEvent(context.Background(), event); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := f.svc.ApplyEvent(context.Background(), event); err != nil {
		t.Fatalf("duplicate apply: %v", err)
	}

	if got := f.itemStock(t, itemID); got != 4 {
		t.Fatalf("stock must be released exactly once, got %d", got)
	}
	if status := f.orderStatus(t, order.ID); status != enums.OrderStatusPaymentFailed {
		t.Fatalf("unexpected status %s", status)
	}
	if count := f.eventCount(t); count != 1 {
		t.Fatalf("expected 1 event row, got %d", count)
	}
}

func TestApplyEventDuplicateSurvivesGuardOutage(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	_, itemID := f.seedOrder(t, enums.OrderStatusPendingPayment, "pi_4", 3, 1)
	event := Event{EventID: "evt_4", Type: string(enums.PaymentEventFailed), IntentID: "pi_4"}

	if err := f.svc.ApplyEvent(context.Background(), event); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	// With the redis guard down, the payment_events row still dedupes.
	f.guard.setErr = goredis.ErrClosed
	if err := f.svc.ApplyEvent(context.Background(), event); err != nil {
		t.Fatalf("apply with degraded guard: %v", err)
	}
	if got := f.itemStock(t, itemID); got != 4 {
		t.Fatalf("stock must be released exactly once, got %d", got)
	}
}

func TestApplyEventUnknownIntentAcked(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)

	err := f.svc.ApplyEvent(context.Background(), Event{
		EventID: "evt_5", Type: string(enums.PaymentEventSucceeded), IntentID: "pi_unknown",
	})
	if err != nil {
		t.Fatalf("expected ack for unknown intent, got %v", err)
	}
	if count := f.eventCount(t); count != 0 {
		t.Fatalf("expected no event rows, got %d", count)
	}
}

func TestApplyEventTerminalStateConflict(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	order, _ := f.seedOrder(t, enums.OrderStatusPaymentFailed, "pi_6", 3, 1)

	err := f.svc.ApplyEvent(context.Background(), Event{
		EventID: "evt_6", Type: string(enums.PaymentEventSucceeded), IntentID: "pi_6",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if status := f.orderStatus(t, order.ID); status != enums.OrderStatusPaymentFailed {
		t.Fatalf("terminal order must not move, got %s", status)
	}
	// The failed event is un-marked so a corrected replay is not swallowed.
	if len(f.guard.deleted) != 1 {
		t.Fatalf("expected guard entry removed, got %v", f.guard.deleted)
	}
}

func TestApplyEventUnknownTypeIgnored(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	order, itemID := f.seedOrder(t, enums.OrderStatusPendingPayment, "pi_7", 3, 1)

	err := f.svc.ApplyEvent(context.Background(), Event{
		EventID: "evt_7", Type: "payment_disputed", IntentID: "pi_7",
	})
	if err != nil {
		t.Fatalf("expected ack for unknown type, got %v", err)
	}
	if status := f.orderStatus(t, order.ID); status != enums.OrderStatusPendingPayment {
		t.Fatalf("order must not move, got %s", status)
	}
	if got := f.itemStock(t, itemID); got != 3 {
		t.Fatalf("stock must be untouched, got %d", got)
	}
	if count := f.eventCount(t); count != 1 {
		t.Fatalf("ignored event must still be recorded, got %d rows", count)
	}
}

func TestDecideTransitions(t *testing.T) {
	t.Parallel()

	pending := &models.Order{Status: enums.OrderStatusPendingPayment}

	decision, err := Decide(pending, Event{Type: string(enums.PaymentEventSucceeded)})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decision.To != enums.OrderStatusPaid {
		t.Fatalf("expected paid target, got %s", decision.To)
	}

	decision, err = Decide(pending, Event{Type: string(enums.PaymentEventFailed)})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decision.To != enums.OrderStatusPaymentFailed {
		t.Fatalf("expected payment_failed target, got %s", decision.To)
	}
	hasRelease := false
	for _, effect := range decision.Effects {
		if effect == EffectReleaseStock {
			hasRelease = true
		}
	}
	if !hasRelease {
		t.Fatal("failed payment must release stock")
	}

	paid := &models.Order{Status: enums.OrderStatusPaid}
	if _, err := Decide(paid, Event{Type: string(enums.PaymentEventSucceeded)}); err == nil {
		t.Fatal("expected conflict for repeated success on paid order")
	}
}
