package models

import "time"

// Staff roles.
const (
	RoleAdmin     = "admin"
	RoleStaff     = "staff"
	RoleChef      = "chef"
	RoleBartender = "bartender"
)

// User is a staff account bound to exactly one tenant.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;index" json:"tenant_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Role      string    `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidRole reports whether role is one of the known staff roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStaff, RoleChef, RoleBartender:
		return true
	}
	return false
}
