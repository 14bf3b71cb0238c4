package services

import (
	"fmt"
	"time"

	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/events"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/store"
)

// base carries the clock and the post-commit hook shared by the services.
type base struct {
	store  *store.Store
	now    func() time.Time
	notify func()
}

func newBase(st *store.Store) base {
	return base{
		store:  st,
		now:    func() time.Time { return time.Now().UTC() },
		notify: func() {},
	}
}

// SetClock replaces the time source.
func (b *base) SetClock(now func() time.Time) {
	b.now = now
}

// SetNotifier registers fn to run after every commit that wrote events.
func (b *base) SetNotifier(fn func()) {
	if fn == nil {
		fn = func() {}
	}
	b.notify = fn
}

// checkOpen rejects closed and expired sessions. Closed is checked first: it is
// terminal, while expiry is only a read-time condition.
func checkOpen(s *models.Session, now time.Time) error {
	if s.IsClosed() {
		return fmt.Errorf("session %d: %w", s.ID, apperr.ErrSessionClosed)
	}
	if s.IsExpired(now) {
		return fmt.Errorf("session %d: %w", s.ID, apperr.ErrSessionExpired)
	}
	return nil
}

// appendEvent writes p to the outbox of the current transaction.
func appendEvent(tx *store.Tx, p events.Payload) error {
	e, err := events.New(p)
	if err != nil {
		return err
	}
	return tx.AppendEvent(p.TenantID, e)
}
