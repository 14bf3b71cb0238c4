package store

import (
	"time"

	"github.com/yeremiapane/table-session/models"
)

// AppendEvent writes an event to the outbox inside the caller's transaction.
func (tx *Tx) AppendEvent(tenantID uint, e *models.OutboxEvent) error {
	e.TenantID = tenantID
	return tx.db.Create(e).Error
}

// PendingEvents is used by the relay and spans all tenants: it only moves rows
// that already carry their tenant to publishers that route by it.
func (tx *Tx) PendingEvents(limit int, maxAttempts int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := tx.db.
		Where("processed_at IS NULL AND attempts < ?", maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (tx *Tx) MarkEventProcessed(id uint, at time.Time) error {
	return tx.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"processed_at": at, "last_error": ""}).Error
}

func (tx *Tx) MarkEventFailed(id uint, attempts int, errMsg string) error {
	return tx.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"attempts": attempts, "last_error": errMsg}).Error
}

// TenantEvents lists recent events of one tenant, newest first.
func (tx *Tx) TenantEvents(tenantID uint, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := tx.db.Where("tenant_id = ?", tenantID).Order("id DESC").Limit(limit).Find(&events).Error
	return events, err
}
