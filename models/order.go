package models

import "time"

// OrderState is derived from item states, except CANCELLED which is set explicitly.
type OrderState string

const (
	OrderPending    OrderState = "PENDING"
	OrderInProgress OrderState = "IN_PROGRESS"
	OrderFulfilled  OrderState = "FULFILLED"
	OrderCancelled  OrderState = "CANCELLED"
)

type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	TenantID      uint        `gorm:"not null;index" json:"tenant_id"`
	SessionID     uint        `gorm:"not null;index" json:"session_id"`
	TableID       uint        `gorm:"not null;index" json:"table_id"`
	CustomerLabel string      `gorm:"type:varchar(100);not null" json:"customer_label"`
	State         OrderState  `gorm:"type:varchar(20);not null;index" json:"state"`
	CancelledAt   *time.Time  `json:"cancelled_at,omitempty"`
	CancelledBy   *uint       `json:"cancelled_by,omitempty"`
	CreatedAt     time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// Subtotal sums unit price times quantity over the loaded items.
func (o *Order) Subtotal() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.LineTotal()
	}
	return total
}

// DeriveOrderState computes the non-cancelled order state from its items:
// FULFILLED when nothing is pending, IN_PROGRESS when some items are done,
// PENDING otherwise.
func DeriveOrderState(items []OrderItem) OrderState {
	var pending, fulfilled int
	for _, it := range items {
		switch it.State {
		case ItemPending:
			pending++
		case ItemFulfilled:
			fulfilled++
		}
	}
	switch {
	case len(items) > 0 && pending == 0:
		return OrderFulfilled
	case fulfilled > 0:
		return OrderInProgress
	default:
		return OrderPending
	}
}
