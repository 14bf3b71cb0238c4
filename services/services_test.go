package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/store"
	"github.com/yeremiapane/table-session/testutil"
	"github.com/yeremiapane/table-session/utils"
	"gorm.io/gorm"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db    *gorm.DB
	store *store.Store
	a     *testutil.Tenant
	b     *testutil.Tenant
	clock *clock

	billing  *Billing
	sessions *SessionManager
	intake   *OrderIntake
	router   *FulfillmentRouter
	admin    *AdminService
	catalog  *CatalogService
	activity *ActivityFeed

	notified atomic.Int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	f := &fixture{
		db:    db,
		store: store.New(db),
		a:     testutil.Seed(t, db, "alpha"),
		b:     testutil.Seed(t, db, "beta"),
		clock: &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}

	f.billing = NewBilling(f.store)
	f.sessions = NewSessionManager(f.store, f.billing, DefaultSessionTTL)
	f.intake = NewOrderIntake(f.store)
	f.router = NewFulfillmentRouter(f.store)
	f.admin = NewAdminService(f.store, utils.NewTokenIssuer("test-secret", time.Hour))
	f.admin.SetHashCost(4)
	f.catalog = NewCatalogService(f.store)
	f.activity = NewActivityFeed(f.store)

	notify := func() { f.notified.Add(1) }
	for _, b := range []*base{&f.sessions.base, &f.intake.base, &f.router.base, &f.admin.base, &f.catalog.base} {
		b.SetClock(f.clock.Now)
		b.SetNotifier(notify)
	}
	return f
}

func (f *fixture) open(t *testing.T, table models.Table) string {
	t.Helper()
	opened, err := f.sessions.OpenOrReuse(context.Background(), table.ID)
	require.NoError(t, err)
	return opened.Session.Token
}

func (f *fixture) submit(t *testing.T, token, label string, items ...ItemRequest) *models.Order {
	t.Helper()
	order, err := f.intake.SubmitOrder(context.Background(), token, label, items)
	require.NoError(t, err)
	return order
}

func (f *fixture) countEvents(t *testing.T, eventType string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).Where("type = ?", eventType).Count(&n).Error)
	return n
}

func item(p models.Product, qty int) ItemRequest {
	return ItemRequest{ProductID: p.ID, Quantity: qty}
}
