package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/testutil"
)

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&mysql.MySQLError{Number: 1213}))
	assert.True(t, isTransient(&mysql.MySQLError{Number: 1205}))
	assert.False(t, isTransient(&mysql.MySQLError{Number: 1062}))
	assert.True(t, isTransient(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, isTransient(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.True(t, isTransient(fmt.Errorf("slot: %w", apperr.ErrConcurrencyConflict)))
	assert.False(t, isTransient(errors.New("boom")))
	assert.False(t, isTransient(apperr.ErrNotFound))
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(&mysql.MySQLError{Number: 1062}))
	assert.True(t, isDuplicateKey(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}))
	assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1213}))
}

func TestTransactionRetriesTransientOnce(t *testing.T) {
	st := New(testutil.NewDB(t))
	ctx := context.Background()

	calls := 0
	err := st.Transaction(ctx, func(tx *Tx) error {
		calls++
		if calls == 1 {
			return sqlite3.Error{Code: sqlite3.ErrBusy}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = st.Transaction(ctx, func(tx *Tx) error {
		calls++
		return sqlite3.Error{Code: sqlite3.ErrBusy}
	})
	assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)
	assert.Equal(t, 2, calls)

	calls = 0
	err = st.Transaction(ctx, func(tx *Tx) error {
		calls++
		return apperr.ErrNotFound
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestTenantScopedLookupsHideOtherTenants(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.Seed(t, db, "alpha")
	b := testutil.Seed(t, db, "beta")
	tx := New(db).Reader(context.Background())

	_, err := tx.Table(b.Tenant.ID, a.TableA.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = tx.Product(b.Tenant.ID, a.Burger.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = tx.Category(b.Tenant.ID, a.Food.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	found, err := tx.OrderableProducts(b.Tenant.ID, []uint{a.Burger.ID, b.Cola.ID})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Contains(t, found, b.Cola.ID)

	tables, err := tx.Tables(a.Tenant.ID, true)
	require.NoError(t, err)
	for _, tb := range tables {
		assert.Equal(t, a.Tenant.ID, tb.TenantID)
	}
}

func TestOrderableProductsSkipsUnavailableAndTagsStation(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.Seed(t, db, "alpha")
	tx := New(db).Reader(context.Background())

	found, err := tx.OrderableProducts(a.Tenant.ID, []uint{a.Burger.ID, a.Cola.ID, a.Sold.ID, 9999})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, models.StationKitchen, found[a.Burger.ID].Station)
	assert.Equal(t, models.StationBar, found[a.Cola.ID].Station)
}

func TestOpenSessionSlotIsUnique(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.Seed(t, db, "alpha")
	st := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	newSession := func(token string) *models.Session {
		return &models.Session{TableID: a.TableA.ID, Token: token, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	}

	first := newSession("token-1")
	require.NoError(t, st.Transaction(ctx, func(tx *Tx) error {
		return tx.CreateSession(a.Tenant.ID, first)
	}))

	err := st.Transaction(ctx, func(tx *Tx) error {
		return tx.CreateSession(a.Tenant.ID, newSession("token-2"))
	})
	assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)

	require.NoError(t, st.Transaction(ctx, func(tx *Tx) error {
		return tx.CloseSession(a.Tenant.ID, first.ID, now, 0, models.CloseReasonStaff, nil)
	}))

	err = st.Transaction(ctx, func(tx *Tx) error {
		return tx.CloseSession(a.Tenant.ID, first.ID, now, 0, models.CloseReasonStaff, nil)
	})
	assert.ErrorIs(t, err, apperr.ErrAlreadyClosed)

	require.NoError(t, st.Transaction(ctx, func(tx *Tx) error {
		return tx.CreateSession(a.Tenant.ID, newSession("token-3"))
	}))
}

func TestSessionByTokenUnknown(t *testing.T) {
	st := New(testutil.NewDB(t))
	_, err := st.Reader(context.Background()).SessionByToken("nope")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestActiveTableNamesAreUnique(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.Seed(t, db, "alpha")
	b := testutil.Seed(t, db, "beta")
	st := New(db)
	ctx := context.Background()

	err := st.Transaction(ctx, func(tx *Tx) error {
		_, err := tx.CreateTable(a.Tenant.ID, "T1")
		return err
	})
	assert.ErrorIs(t, err, apperr.ErrNameTaken)

	// Another tenant may reuse the name.
	require.NoError(t, st.Transaction(ctx, func(tx *Tx) error {
		_, err := tx.CreateTable(b.Tenant.ID, "Patio")
		return err
	}))

	require.NoError(t, st.Transaction(ctx, func(tx *Tx) error {
		table, err := tx.DeactivateTable(a.Tenant.ID, a.TableA.ID)
		if err != nil {
			return err
		}
		assert.False(t, table.Active)
		_, err = tx.CreateTable(a.Tenant.ID, "T1")
		return err
	}))

	_, err = st.Reader(ctx).LockActiveTableForScan(a.TableA.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSessionTotalExcludesCancelledOrders(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.Seed(t, db, "alpha")
	st := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	s := &models.Session{TableID: a.TableA.ID, Token: "tok", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	kept := &models.Order{TableID: a.TableA.ID, CustomerLabel: "Ana", State: models.OrderPending, Items: []models.OrderItem{
		{ProductID: a.Burger.ID, ProductName: "Burger", Quantity: 2, UnitPrice: 8500, Station: models.StationKitchen, State: models.ItemPending},
	}}
	cancelled := &models.Order{TableID: a.TableA.ID, CustomerLabel: "Ana", State: models.OrderPending, Items: []models.OrderItem{
		{ProductID: a.Cola.ID, ProductName: "Cola", Quantity: 1, UnitPrice: 1800, Station: models.StationBar, State: models.ItemPending},
	}}

	require.NoError(t, st.Transaction(ctx, func(tx *Tx) error {
		if err := tx.CreateSession(a.Tenant.ID, s); err != nil {
			return err
		}
		kept.SessionID, cancelled.SessionID = s.ID, s.ID
		if err := tx.CreateOrder(a.Tenant.ID, kept); err != nil {
			return err
		}
		return tx.CreateOrder(a.Tenant.ID, cancelled)
	}))

	tx := st.Reader(ctx)
	total, err := tx.SessionTotal(a.Tenant.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(18800), total)

	require.NoError(t, tx.CancelOrder(a.Tenant.ID, cancelled.ID, now, nil))

	total, err = tx.SessionTotal(a.Tenant.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(17000), total)

	queue, err := tx.StationQueue(a.Tenant.ID, models.StationBar)
	require.NoError(t, err)
	assert.Empty(t, queue)

	queue, err = tx.StationQueue(a.Tenant.ID, models.StationKitchen)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, kept.ID, queue[0].ID)

	// Another tenant sees nothing.
	total, err = tx.SessionTotal(a.Tenant.ID+1000, s.ID)
	require.NoError(t, err)
	assert.Zero(t, total)
}
