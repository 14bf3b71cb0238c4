package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/events"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/store"
	"github.com/yeremiapane/table-session/utils"
)

// DefaultSessionTTL is how long a table session accepts orders.
const DefaultSessionTTL = 4 * time.Hour

// SessionManager opens, resolves and closes table sessions.
type SessionManager struct {
	base
	billing *Billing
	ttl     time.Duration
}

func NewSessionManager(st *store.Store, billing *Billing, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{base: newBase(st), billing: billing, ttl: ttl}
}

// OpenedSession is the result of a table scan.
type OpenedSession struct {
	Session models.Session
	Table   models.Table
	Reused  bool
}

// OpenOrReuse returns the open, unexpired session of the table or creates one.
// The table row is locked first, so concurrent scans of the same table queue up
// and all but the first reuse its session. An expired session still holding
// the table is closed with reason "expired" and its total frozen before the new
// one is created.
func (m *SessionManager) OpenOrReuse(ctx context.Context, tableID uint) (*OpenedSession, error) {
	var out OpenedSession
	var wrote bool

	err := m.store.Transaction(ctx, func(tx *store.Tx) error {
		out, wrote = OpenedSession{}, false

		table, err := tx.LockActiveTableForScan(tableID)
		if err != nil {
			return err
		}
		out.Table = *table
		tenantID := table.TenantID
		now := m.now()

		current, err := tx.LockOpenSessionForTable(tenantID, table.ID)
		if err != nil {
			return err
		}
		if current != nil && !current.IsExpired(now) {
			out.Session, out.Reused = *current, true
			return nil
		}

		if current != nil {
			if err := m.supersede(tx, table, current, now); err != nil {
				return err
			}
		}

		token, err := utils.NewSessionToken()
		if err != nil {
			return fmt.Errorf("generate session token: %w", err)
		}
		s := &models.Session{
			TableID:   table.ID,
			Token:     token,
			CreatedAt: now,
			ExpiresAt: now.Add(m.ttl),
		}
		if err := tx.CreateSession(tenantID, s); err != nil {
			return err
		}

		err = appendEvent(tx, events.Payload{
			Type:       events.TypeSessionOpened,
			TenantID:   tenantID,
			TableID:    table.ID,
			TableName:  table.Name,
			SessionID:  s.ID,
			Message:    fmt.Sprintf("Table %s opened a session", table.Name),
			OccurredAt: now,
		})
		if err != nil {
			return err
		}

		out.Session, wrote = *s, true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if wrote {
		m.notify()
		utils.InfoLogger.WithFields(logrus.Fields{
			"tenant_id":  out.Table.TenantID,
			"table_id":   out.Table.ID,
			"session_id": out.Session.ID,
		}).Info("session opened")
	}
	return &out, nil
}

func (m *SessionManager) supersede(tx *store.Tx, table *models.Table, expired *models.Session, now time.Time) error {
	total, err := m.billing.total(tx, table.TenantID, expired.ID)
	if err != nil {
		return err
	}
	if err := tx.CloseSession(table.TenantID, expired.ID, now, total, models.CloseReasonExpired, nil); err != nil {
		return err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant_id":  table.TenantID,
		"table_id":   table.ID,
		"session_id": expired.ID,
		"total":      total,
	}).Info("expired session closed on rescan")

	return appendEvent(tx, events.Payload{
		Type:       events.TypeSessionClosed,
		TenantID:   table.TenantID,
		TableID:    table.ID,
		TableName:  table.Name,
		SessionID:  expired.ID,
		Total:      &total,
		Message:    fmt.Sprintf("Expired session of table %s closed", table.Name),
		OccurredAt: now,
	})
}

// Resolve maps a token to its session. It is the only authorization check for
// table-side callers.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*models.Session, error) {
	s, err := m.store.Reader(ctx).SessionByToken(token)
	if err != nil {
		return nil, err
	}
	if err := checkOpen(s, m.now()); err != nil {
		return nil, err
	}
	return s, nil
}

// RequestBill stamps the bill request of the token's session. Only the first
// call sets the time and emits an event; later calls return the session as is.
func (m *SessionManager) RequestBill(ctx context.Context, token string) (*models.Session, error) {
	var out *models.Session
	var wrote bool

	err := m.store.Transaction(ctx, func(tx *store.Tx) error {
		wrote = false

		s, err := tx.LockSessionByToken(token)
		if err != nil {
			return err
		}
		now := m.now()
		if err := checkOpen(s, now); err != nil {
			return err
		}

		set, err := tx.MarkBillRequested(s.TenantID, s.ID, now)
		if err != nil {
			return err
		}
		if set {
			table, err := tx.Table(s.TenantID, s.TableID)
			if err != nil {
				return err
			}
			err = appendEvent(tx, events.Payload{
				Type:       events.TypeSessionBillRequested,
				TenantID:   s.TenantID,
				TableID:    s.TableID,
				TableName:  table.Name,
				SessionID:  s.ID,
				Message:    fmt.Sprintf("Table %s requested the bill", table.Name),
				OccurredAt: now,
			})
			if err != nil {
				return err
			}
			wrote = true
		}

		out, err = tx.Session(s.TenantID, s.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if wrote {
		m.notify()
		utils.InfoLogger.WithFields(logrus.Fields{
			"tenant_id":  out.TenantID,
			"session_id": out.ID,
		}).Info("bill requested")
	}
	return out, nil
}

// CloseSession freezes the session total and ends the session. The session row
// is locked before the total is read, so an order submitted concurrently either
// commits first and is counted or sees the session closed.
func (m *SessionManager) CloseSession(ctx context.Context, tenantID, sessionID, closedBy uint) (*models.Session, error) {
	var out *models.Session

	err := m.store.Transaction(ctx, func(tx *store.Tx) error {
		s, err := tx.LockSession(tenantID, sessionID)
		if err != nil {
			return err
		}
		if s.IsClosed() {
			return fmt.Errorf("session %d: %w", s.ID, apperr.ErrAlreadyClosed)
		}

		total, err := m.billing.total(tx, tenantID, s.ID)
		if err != nil {
			return err
		}
		now := m.now()
		var by *uint
		if closedBy != 0 {
			by = &closedBy
		}
		if err := tx.CloseSession(tenantID, s.ID, now, total, models.CloseReasonStaff, by); err != nil {
			return err
		}

		table, err := tx.Table(tenantID, s.TableID)
		if err != nil {
			return err
		}
		err = appendEvent(tx, events.Payload{
			Type:       events.TypeSessionClosed,
			TenantID:   tenantID,
			TableID:    s.TableID,
			TableName:  table.Name,
			SessionID:  s.ID,
			Total:      &total,
			Message:    fmt.Sprintf("Table %s closed with total %s", table.Name, utils.FormatAmount(total, "")),
			OccurredAt: now,
		})
		if err != nil {
			return err
		}

		out, err = tx.Session(tenantID, s.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.notify()
	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"session_id": out.ID,
		"total":      *out.TotalAtClose,
	}).Info("session closed")
	return out, nil
}
