package models

import "time"

// Category groups products and decides which station prepares them.
type Category struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TenantID        uint      `gorm:"not null;index" json:"tenant_id"`
	Name            string    `gorm:"type:varchar(100);not null" json:"name"`
	RoutesToKitchen bool      `gorm:"not null" json:"routes_to_kitchen"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

// Station returns the station that prepares products of this category.
func (c Category) Station() Station {
	if c.RoutesToKitchen {
		return StationKitchen
	}
	return StationBar
}
