package models

import "time"

// Table is a physical ordering point. ActiveName mirrors Name while the table is
// active and is NULL otherwise, so the unique index only binds active tables.
type Table struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TenantID   uint      `gorm:"not null;uniqueIndex:idx_tables_active_name,priority:1" json:"tenant_id"`
	Name       string    `gorm:"type:varchar(50);not null" json:"name"`
	ActiveName *string   `gorm:"type:varchar(50);uniqueIndex:idx_tables_active_name,priority:2" json:"-"`
	Active     bool      `gorm:"not null" json:"active"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}
