package models

import "time"

// Close reasons recorded on a Session.
const (
	CloseReasonStaff   = "closed_by_staff"
	CloseReasonExpired = "expired"
)

// Session is the ordering window of a table, addressed by an opaque bearer token.
//
// OpenTableID equals TableID while the session is open and is NULL once closed;
// its unique index enforces at most one open session per table at the storage level.
// A closed session is never written again.
type Session struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	TenantID        uint       `gorm:"not null;index" json:"tenant_id"`
	TableID         uint       `gorm:"not null;index" json:"table_id"`
	Token           string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	OpenTableID     *uint      `gorm:"uniqueIndex" json:"-"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	ExpiresAt       time.Time  `gorm:"not null" json:"expires_at"`
	BillRequestedAt *time.Time `json:"bill_requested_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	ClosedBy        *uint      `json:"closed_by,omitempty"`
	CloseReason     string     `gorm:"type:varchar(30)" json:"close_reason,omitempty"`
	TotalAtClose    *int64     `json:"total_at_close,omitempty"`
}

// IsClosed reports whether the session has been closed.
func (s *Session) IsClosed() bool {
	return s.ClosedAt != nil
}

// IsExpired reports whether the session's TTL has elapsed at now.
func (s *Session) IsExpired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
