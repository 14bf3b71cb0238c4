package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/models"
	"gorm.io/gorm"
)

// LockOpenSessionForTable locks the table's open session, if any. A nil session
// and nil error mean the table has no open session.
func (tx *Tx) LockOpenSessionForTable(tenantID, tableID uint) (*models.Session, error) {
	var sessions []models.Session
	err := tx.forUpdate().
		Where("tenant_id = ? AND open_table_id = ?", tenantID, tableID).
		Limit(1).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// CreateSession inserts an open session. Losing the open-slot race against a
// concurrent insert is reported as a concurrency conflict so the surrounding
// transaction is retried and finds the winner.
func (tx *Tx) CreateSession(tenantID uint, s *models.Session) error {
	s.TenantID = tenantID
	slot := s.TableID
	s.OpenTableID = &slot
	if err := tx.db.Create(s).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("open session for table %d: %w", s.TableID, apperr.ErrConcurrencyConflict)
		}
		return err
	}
	return nil
}

// SessionByToken is the root lookup for table-side callers; the tenant is taken
// from the session row.
func (tx *Tx) SessionByToken(token string) (*models.Session, error) {
	var s models.Session
	if err := tx.db.Where("token = ?", token).First(&s).Error; err != nil {
		return nil, tokenErr(err)
	}
	return &s, nil
}

// LockSessionByToken is SessionByToken with a row lock.
func (tx *Tx) LockSessionByToken(token string) (*models.Session, error) {
	var s models.Session
	if err := tx.forUpdate().Where("token = ?", token).First(&s).Error; err != nil {
		return nil, tokenErr(err)
	}
	return &s, nil
}

func tokenErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrInvalidToken
	}
	return err
}

func (tx *Tx) Session(tenantID, sessionID uint) (*models.Session, error) {
	var s models.Session
	if err := tx.db.Where("tenant_id = ? AND id = ?", tenantID, sessionID).First(&s).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("session %d", sessionID))
	}
	return &s, nil
}

func (tx *Tx) LockSession(tenantID, sessionID uint) (*models.Session, error) {
	var s models.Session
	err := tx.forUpdate().Where("tenant_id = ? AND id = ?", tenantID, sessionID).First(&s).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("session %d", sessionID))
	}
	return &s, nil
}

// OpenSessions lists sessions that have not been closed, expired ones included.
func (tx *Tx) OpenSessions(tenantID uint) ([]models.Session, error) {
	var ss []models.Session
	err := tx.db.Where("tenant_id = ? AND closed_at IS NULL", tenantID).
		Order("created_at ASC").Find(&ss).Error
	return ss, err
}

func (tx *Tx) TableSessions(tenantID, tableID uint, limit int) ([]models.Session, error) {
	var ss []models.Session
	err := tx.db.Where("tenant_id = ? AND table_id = ?", tenantID, tableID).
		Order("created_at DESC").Limit(limit).Find(&ss).Error
	return ss, err
}

// MarkBillRequested stamps bill_requested_at unless it is already set and
// reports whether this call set it.
func (tx *Tx) MarkBillRequested(tenantID, sessionID uint, at time.Time) (bool, error) {
	res := tx.db.Model(&models.Session{}).
		Where("tenant_id = ? AND id = ? AND bill_requested_at IS NULL AND closed_at IS NULL", tenantID, sessionID).
		Update("bill_requested_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CloseSession freezes the session: closed_at, total and reason are written
// together and the open slot is released. Closed rows are never matched again.
func (tx *Tx) CloseSession(tenantID, sessionID uint, at time.Time, total int64, reason string, closedBy *uint) error {
	res := tx.db.Model(&models.Session{}).
		Where("tenant_id = ? AND id = ? AND closed_at IS NULL", tenantID, sessionID).
		Updates(map[string]interface{}{
			"closed_at":      at,
			"total_at_close": total,
			"close_reason":   reason,
			"closed_by":      closedBy,
			"open_table_id":  nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %d: %w", sessionID, apperr.ErrAlreadyClosed)
	}
	return nil
}
