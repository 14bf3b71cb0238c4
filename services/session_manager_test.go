package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/events"
	"github.com/yeremiapane/table-session/models"
)

func TestOpenOrReuseReturnsSameToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.sessions.OpenOrReuse(ctx, f.a.TableA.ID)
	require.NoError(t, err)
	assert.False(t, first.Reused)
	assert.GreaterOrEqual(t, len(first.Session.Token), 40)
	assert.Equal(t, f.a.Tenant.ID, first.Session.TenantID)
	assert.Equal(t, f.clock.Now().Add(DefaultSessionTTL), first.Session.ExpiresAt)

	second, err := f.sessions.OpenOrReuse(ctx, f.a.TableA.ID)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, first.Session.Token, second.Session.Token)
	assert.Equal(t, first.Session.ID, second.Session.ID)

	other, err := f.sessions.OpenOrReuse(ctx, f.a.TableB.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.Session.Token, other.Session.Token)

	assert.Equal(t, int64(2), f.countEvents(t, events.TypeSessionOpened))
}

func TestOpenOrReuseUnknownOrInactiveTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sessions.OpenOrReuse(ctx, 99999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.admin.DeactivateTable(ctx, f.a.Tenant.ID, f.a.TableB.ID)
	require.NoError(t, err)
	_, err = f.sessions.OpenOrReuse(ctx, f.a.TableB.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentOpensYieldOneSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	tokens := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			opened, err := f.sessions.OpenOrReuse(ctx, f.a.TableA.ID)
			errs[i] = err
			if err == nil {
				tokens[i] = opened.Session.Token
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, tokens[0], tokens[i])
	}

	var open int64
	require.NoError(t, f.db.Model(&models.Session{}).
		Where("table_id = ? AND closed_at IS NULL", f.a.TableA.ID).Count(&open).Error)
	assert.Equal(t, int64(1), open)
}

func TestResolveFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sessions.Resolve(ctx, "does-not-exist")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	token := f.open(t, f.a.TableA)
	s, err := f.sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, f.a.TableA.ID, s.TableID)

	f.clock.Advance(DefaultSessionTTL + time.Second)
	_, err = f.sessions.Resolve(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrSessionExpired)

	_, err = f.intake.SubmitOrder(ctx, token, "Ana", []ItemRequest{item(f.a.Burger, 1)})
	assert.ErrorIs(t, err, apperr.ErrSessionExpired)

	// Expiry is passive: the session is still unclosed.
	detail, err := f.sessions.SessionDetail(ctx, f.a.Tenant.ID, s.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Session.ClosedAt)
	assert.Equal(t, StatusExpired, detail.Status)

	token2 := f.open(t, f.a.TableB)
	_, err = f.sessions.CloseSession(ctx, f.a.Tenant.ID, mustResolve(t, f, token2).ID, f.a.Staff.ID)
	require.NoError(t, err)
	_, err = f.sessions.Resolve(ctx, token2)
	assert.ErrorIs(t, err, apperr.ErrSessionClosed)
}

func mustResolve(t *testing.T, f *fixture, token string) *models.Session {
	t.Helper()
	s, err := f.sessions.Resolve(context.Background(), token)
	require.NoError(t, err)
	return s
}

func TestExpiredSessionIsSupersededOnScan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	oldToken := f.open(t, f.a.TableA)
	old := mustResolve(t, f, oldToken)
	f.submit(t, oldToken, "Ana", item(f.a.Burger, 2))

	f.clock.Advance(DefaultSessionTTL + time.Minute)

	opened, err := f.sessions.OpenOrReuse(ctx, f.a.TableA.ID)
	require.NoError(t, err)
	assert.False(t, opened.Reused)
	assert.NotEqual(t, oldToken, opened.Session.Token)

	closed, err := f.sessions.SessionDetail(ctx, f.a.Tenant.ID, old.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.Session.ClosedAt)
	require.NotNil(t, closed.Session.TotalAtClose)
	assert.Equal(t, int64(17000), *closed.Session.TotalAtClose)
	assert.Equal(t, models.CloseReasonExpired, closed.Session.CloseReason)
	assert.Nil(t, closed.Session.ClosedBy)

	_, err = f.sessions.Resolve(ctx, oldToken)
	assert.ErrorIs(t, err, apperr.ErrSessionClosed)
}

func TestRequestBillFirstCallWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.open(t, f.a.TableA)

	s, err := f.sessions.RequestBill(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, s.BillRequestedAt)
	first := *s.BillRequestedAt

	f.clock.Advance(5 * time.Minute)
	s, err = f.sessions.RequestBill(ctx, token)
	require.NoError(t, err)
	assert.True(t, first.Equal(*s.BillRequestedAt))

	assert.Equal(t, int64(1), f.countEvents(t, events.TypeSessionBillRequested))

	_, err = f.sessions.RequestBill(ctx, "bogus")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestCloseSessionIsTenantScopedAndFinal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.open(t, f.a.TableA)
	s := mustResolve(t, f, token)

	_, err := f.sessions.CloseSession(ctx, f.b.Tenant.ID, s.ID, f.b.Staff.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	closed, err := f.sessions.CloseSession(ctx, f.a.Tenant.ID, s.ID, f.a.Staff.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.TotalAtClose)
	assert.Zero(t, *closed.TotalAtClose)
	assert.Equal(t, models.CloseReasonStaff, closed.CloseReason)
	require.NotNil(t, closed.ClosedBy)
	assert.Equal(t, f.a.Staff.ID, *closed.ClosedBy)

	_, err = f.sessions.CloseSession(ctx, f.a.Tenant.ID, s.ID, f.a.Staff.ID)
	assert.ErrorIs(t, err, apperr.ErrAlreadyClosed)

	// The table can be opened again.
	assert.NotEqual(t, token, f.open(t, f.a.TableA))
}

func TestSessionViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.open(t, f.a.TableA)
	f.submit(t, token, "Ana", item(f.a.Burger, 1), item(f.a.Cola, 2))
	f.open(t, f.b.TableA)

	view, err := f.sessions.GuestView(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "T1", view.TableName)
	assert.Equal(t, StatusOpen, view.Status)
	assert.Equal(t, int64(8500+2*1800), view.Total)
	require.Len(t, view.Orders, 1)
	assert.Len(t, view.Orders[0].Items, 2)

	open, err := f.sessions.OpenSessions(ctx, f.a.Tenant.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, view.Total, open[0].Total)

	history, err := f.sessions.TableHistory(ctx, f.a.Tenant.ID, f.a.TableA.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = f.sessions.TableHistory(ctx, f.b.Tenant.ID, f.a.TableA.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
