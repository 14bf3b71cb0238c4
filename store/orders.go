package store

import (
	"fmt"
	"time"

	"github.com/yeremiapane/table-session/models"
	"gorm.io/gorm"
)

// items preloads order items of the tenant, optionally narrowed, in id order.
func items(tenantID uint, where string, args ...interface{}) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("tenant_id = ?", tenantID)
		if where != "" {
			db = db.Where(where, args...)
		}
		return db.Order("id ASC")
	}
}

// CreateOrder inserts the order and its items in one statement batch.
func (tx *Tx) CreateOrder(tenantID uint, o *models.Order) error {
	o.TenantID = tenantID
	for i := range o.Items {
		o.Items[i].TenantID = tenantID
	}
	return tx.db.Create(o).Error
}

func (tx *Tx) Order(tenantID, orderID uint) (*models.Order, error) {
	var o models.Order
	err := tx.db.Preload("Items", items(tenantID, "")).
		Where("tenant_id = ? AND id = ?", tenantID, orderID).
		First(&o).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("order %d", orderID))
	}
	return &o, nil
}

// LockOrder takes the row lock that serializes every state change of an order.
func (tx *Tx) LockOrder(tenantID, orderID uint) (*models.Order, error) {
	var o models.Order
	err := tx.forUpdate().Where("tenant_id = ? AND id = ?", tenantID, orderID).First(&o).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("order %d", orderID))
	}
	return &o, nil
}

// FulfillStationItems flips the order's pending items of one station to
// FULFILLED and returns how many rows changed.
func (tx *Tx) FulfillStationItems(tenantID, orderID uint, station models.Station, at time.Time) (int64, error) {
	res := tx.db.Model(&models.OrderItem{}).
		Where("tenant_id = ? AND order_id = ? AND station = ? AND state = ?",
			tenantID, orderID, station, models.ItemPending).
		Updates(map[string]interface{}{
			"state":        models.ItemFulfilled,
			"fulfilled_at": at,
		})
	return res.RowsAffected, res.Error
}

// LockOrderItems reads the current item rows of an order under lock.
func (tx *Tx) LockOrderItems(tenantID, orderID uint) ([]models.OrderItem, error) {
	var rows []models.OrderItem
	err := tx.forUpdate().
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (tx *Tx) SetOrderState(tenantID, orderID uint, state models.OrderState) error {
	return tx.db.Model(&models.Order{}).
		Where("tenant_id = ? AND id = ?", tenantID, orderID).
		Update("state", state).Error
}

func (tx *Tx) CancelOrder(tenantID, orderID uint, at time.Time, by *uint) error {
	return tx.db.Model(&models.Order{}).
		Where("tenant_id = ? AND id = ?", tenantID, orderID).
		Updates(map[string]interface{}{
			"state":        models.OrderCancelled,
			"cancelled_at": at,
			"cancelled_by": by,
		}).Error
}

// SessionOrders returns every order of the session, cancelled ones included,
// oldest first.
func (tx *Tx) SessionOrders(tenantID, sessionID uint) ([]models.Order, error) {
	var orders []models.Order
	err := tx.db.Preload("Items", items(tenantID, "")).
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
		Order("created_at ASC, id ASC").
		Find(&orders).Error
	return orders, err
}

// SessionTotal sums unit price times quantity over the session's items whose
// order is not cancelled.
func (tx *Tx) SessionTotal(tenantID, sessionID uint) (int64, error) {
	var total int64
	err := tx.db.Model(&models.OrderItem{}).
		Select("COALESCE(SUM(order_items.unit_price * order_items.quantity), 0)").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.tenant_id = ? AND order_items.tenant_id = ?", tenantID, tenantID).
		Where("orders.session_id = ? AND orders.state <> ?", sessionID, models.OrderCancelled).
		Scan(&total).Error
	return total, err
}

// StationQueue returns the tenant's non-cancelled orders that still have pending
// items for the station, each carrying only those items, oldest first.
func (tx *Tx) StationQueue(tenantID uint, station models.Station) ([]models.Order, error) {
	var orders []models.Order
	err := tx.db.
		Preload("Items", items(tenantID, "station = ? AND state = ?", station, models.ItemPending)).
		Where("orders.tenant_id = ? AND orders.state <> ?", tenantID, models.OrderCancelled).
		Where(`EXISTS (SELECT 1 FROM order_items oi
			WHERE oi.order_id = orders.id AND oi.tenant_id = ? AND oi.station = ? AND oi.state = ?)`,
			tenantID, station, models.ItemPending).
		Order("orders.created_at ASC, orders.id ASC").
		Find(&orders).Error
	return orders, err
}
