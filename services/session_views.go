package services

import (
	"context"
	"time"

	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/store"
)

const (
	StatusOpen    = "open"
	StatusExpired = "expired"
	StatusClosed  = "closed"
)

// SessionSummary is a session with its table name, status and total. Total is
// the frozen total for closed sessions and the running total otherwise.
type SessionSummary struct {
	Session   models.Session `json:"session"`
	TableName string         `json:"table_name"`
	Status    string         `json:"status"`
	Total     int64          `json:"total"`
	Orders    []models.Order `json:"orders,omitempty"`
}

func sessionStatus(s *models.Session, now time.Time) string {
	switch {
	case s.IsClosed():
		return StatusClosed
	case s.IsExpired(now):
		return StatusExpired
	default:
		return StatusOpen
	}
}

func (m *SessionManager) summarize(tx *store.Tx, s *models.Session, tableName string, withOrders bool) (*SessionSummary, error) {
	sum := &SessionSummary{
		Session:   *s,
		TableName: tableName,
		Status:    sessionStatus(s, m.now()),
	}

	if s.TotalAtClose != nil {
		sum.Total = *s.TotalAtClose
	} else {
		total, err := m.billing.total(tx, s.TenantID, s.ID)
		if err != nil {
			return nil, err
		}
		sum.Total = total
	}

	if withOrders {
		orders, err := tx.SessionOrders(s.TenantID, s.ID)
		if err != nil {
			return nil, err
		}
		sum.Orders = orders
	}
	return sum, nil
}

// GuestView returns the token's session with its orders and running total.
func (m *SessionManager) GuestView(ctx context.Context, token string) (*SessionSummary, error) {
	s, err := m.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	tx := m.store.Reader(ctx)
	table, err := tx.Table(s.TenantID, s.TableID)
	if err != nil {
		return nil, err
	}
	return m.summarize(tx, s, table.Name, true)
}

// SessionDetail is the staff view of one session of the tenant.
func (m *SessionManager) SessionDetail(ctx context.Context, tenantID, sessionID uint) (*SessionSummary, error) {
	tx := m.store.Reader(ctx)
	s, err := tx.Session(tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	table, err := tx.Table(tenantID, s.TableID)
	if err != nil {
		return nil, err
	}
	return m.summarize(tx, s, table.Name, true)
}

// OpenSessions lists the tenant's unclosed sessions, expired ones flagged.
func (m *SessionManager) OpenSessions(ctx context.Context, tenantID uint) ([]SessionSummary, error) {
	tx := m.store.Reader(ctx)
	sessions, err := tx.OpenSessions(tenantID)
	if err != nil {
		return nil, err
	}
	return m.summarizeAll(tx, tenantID, sessions)
}

// TableHistory lists the most recent sessions of a table of the tenant.
func (m *SessionManager) TableHistory(ctx context.Context, tenantID, tableID uint, limit int) ([]SessionSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	tx := m.store.Reader(ctx)
	if _, err := tx.Table(tenantID, tableID); err != nil {
		return nil, err
	}
	sessions, err := tx.TableSessions(tenantID, tableID, limit)
	if err != nil {
		return nil, err
	}
	return m.summarizeAll(tx, tenantID, sessions)
}

func (m *SessionManager) summarizeAll(tx *store.Tx, tenantID uint, sessions []models.Session) ([]SessionSummary, error) {
	ids := make([]uint, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.TableID)
	}
	tables, err := tx.TablesByID(tenantID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]SessionSummary, 0, len(sessions))
	for i := range sessions {
		sum, err := m.summarize(tx, &sessions[i], tables[sessions[i].TableID].Name, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *sum)
	}
	return out, nil
}
