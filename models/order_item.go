package models

import (
	"time"
)

type ItemState string

const (
	ItemPending   ItemState = "PENDING"
	ItemFulfilled ItemState = "FULFILLED"
)

// OrderItem is one line of an order. UnitPrice, ProductName and Station are
// snapshots taken at submission and never change afterwards.
type OrderItem struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TenantID    uint       `gorm:"not null;index:idx_order_items_queue,priority:1" json:"tenant_id"`
	OrderID     uint       `gorm:"not null;index" json:"order_id"`
	ProductID   uint       `gorm:"not null" json:"product_id"`
	ProductName string     `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity    int        `gorm:"not null" json:"quantity"`
	UnitPrice   int64      `gorm:"not null" json:"unit_price"`
	Station     Station    `gorm:"type:varchar(10);not null;index:idx_order_items_queue,priority:2" json:"station"`
	State       ItemState  `gorm:"type:varchar(10);not null;index:idx_order_items_queue,priority:3" json:"state"`
	Notes       string     `gorm:"type:text" json:"notes"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

// LineTotal is UnitPrice times Quantity.
func (i OrderItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}
