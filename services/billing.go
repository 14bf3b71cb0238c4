package services

import (
	"context"

	"github.com/yeremiapane/table-session/store"
)

// Billing computes session totals. Cancelled orders never count.
type Billing struct {
	store *store.Store
}

func NewBilling(st *store.Store) *Billing {
	return &Billing{store: st}
}

// ComputeTotal returns the running total of a session of the tenant.
func (b *Billing) ComputeTotal(ctx context.Context, tenantID, sessionID uint) (int64, error) {
	tx := b.store.Reader(ctx)
	if _, err := tx.Session(tenantID, sessionID); err != nil {
		return 0, err
	}
	return b.total(tx, tenantID, sessionID)
}

// total runs inside the caller's transaction so a close can freeze exactly
// what it read.
func (b *Billing) total(tx *store.Tx, tenantID, sessionID uint) (int64, error) {
	return tx.SessionTotal(tenantID, sessionID)
}
