package models

import "time"

// OutboxEvent is a domain event written in the same transaction as the change it
// describes and delivered by the relay after commit.
type OutboxEvent struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	EventID     string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"event_id"`
	TenantID    uint       `gorm:"not null;index" json:"tenant_id"`
	Type        string     `gorm:"type:varchar(50);not null" json:"type"`
	TableID     uint       `gorm:"not null" json:"table_id"`
	SessionID   uint       `gorm:"not null" json:"session_id"`
	OrderID     *uint      `json:"order_id,omitempty"`
	Station     Station    `gorm:"type:varchar(10)" json:"station,omitempty"`
	Payload     string     `gorm:"type:text;not null" json:"payload"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	LastError   string     `gorm:"type:text" json:"last_error,omitempty"`
	ProcessedAt *time.Time `gorm:"index" json:"processed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
}
