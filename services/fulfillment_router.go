package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/events"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/store"
	"github.com/yeremiapane/table-session/utils"
)

// FulfillmentRouter serves the station queues and moves items and orders
// through their states.
type FulfillmentRouter struct {
	base
}

func NewFulfillmentRouter(st *store.Store) *FulfillmentRouter {
	return &FulfillmentRouter{base: newBase(st)}
}

// QueuedOrder is an order as a station sees it: only that station's pending
// items are attached.
type QueuedOrder struct {
	models.Order
	TableName string `json:"table_name"`
}

// StationQueue lists the tenant's non-cancelled orders with pending work for
// station, oldest first.
func (r *FulfillmentRouter) StationQueue(ctx context.Context, tenantID uint, station models.Station) ([]QueuedOrder, error) {
	station, err := normalizeStation(station)
	if err != nil {
		return nil, err
	}
	tx := r.store.Reader(ctx)
	orders, err := tx.StationQueue(tenantID, station)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.TableID)
	}
	tables, err := tx.TablesByID(tenantID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]QueuedOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, QueuedOrder{Order: o, TableName: tables[o.TableID].Name})
	}
	return out, nil
}

// Order returns one order of the tenant with all its items.
func (r *FulfillmentRouter) Order(ctx context.Context, tenantID, orderID uint) (*models.Order, error) {
	return r.store.Reader(ctx).Order(tenantID, orderID)
}

// MarkFulfilled flips every pending item of station in the order and
// recomputes the order state from the item rows read back under the order lock.
// Kitchen and bar may call it concurrently on the same order; the lock makes
// the second recompute see the first one's flips. Calling it again for a
// station with nothing pending changes nothing.
func (r *FulfillmentRouter) MarkFulfilled(ctx context.Context, tenantID, orderID uint, station models.Station) (*models.Order, error) {
	station, err := normalizeStation(station)
	if err != nil {
		return nil, err
	}

	var out *models.Order
	var flipped int64

	err = r.store.Transaction(ctx, func(tx *store.Tx) error {
		flipped = 0

		o, err := tx.LockOrder(tenantID, orderID)
		if err != nil {
			return err
		}
		if o.State == models.OrderCancelled {
			return fmt.Errorf("order %d: %w", o.ID, apperr.ErrOrderCancelled)
		}

		now := r.now()
		flipped, err = tx.FulfillStationItems(tenantID, o.ID, station, now)
		if err != nil {
			return err
		}

		items, err := tx.LockOrderItems(tenantID, o.ID)
		if err != nil {
			return err
		}
		if state := models.DeriveOrderState(items); state != o.State {
			if err := tx.SetOrderState(tenantID, o.ID, state); err != nil {
				return err
			}
		}

		if flipped > 0 {
			table, err := tx.Table(tenantID, o.TableID)
			if err != nil {
				return err
			}
			err = appendEvent(tx, events.Payload{
				Type:          events.TypeItemsFulfilled,
				TenantID:      tenantID,
				TableID:       o.TableID,
				TableName:     table.Name,
				SessionID:     o.SessionID,
				OrderID:       o.ID,
				Station:       station,
				CustomerLabel: o.CustomerLabel,
				ItemCount:     int(flipped),
				Message:       fmt.Sprintf("%s items of order #%d ready for table %s", station.Label(), o.ID, table.Name),
				OccurredAt:    now,
			})
			if err != nil {
				return err
			}
		}

		out, err = tx.Order(tenantID, o.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if flipped > 0 {
		r.notify()
		utils.InfoLogger.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"order_id":  out.ID,
			"station":   station,
			"items":     flipped,
			"state":     out.State,
		}).Info("items fulfilled")
	}
	return out, nil
}

// CancelOrder marks the order CANCELLED. The rows stay; the order just leaves
// the station queues and the session total. Cancelling twice is a no-op, and
// an order of a closed session cannot be cancelled because its total is frozen.
func (r *FulfillmentRouter) CancelOrder(ctx context.Context, tenantID, orderID, cancelledBy uint) (*models.Order, error) {
	var out *models.Order
	var wrote bool

	err := r.store.Transaction(ctx, func(tx *store.Tx) error {
		wrote = false

		o, err := tx.LockOrder(tenantID, orderID)
		if err != nil {
			return err
		}
		if o.State == models.OrderCancelled {
			out, err = tx.Order(tenantID, o.ID)
			return err
		}

		s, err := tx.LockSession(tenantID, o.SessionID)
		if err != nil {
			return err
		}
		if s.IsClosed() {
			return fmt.Errorf("session %d: %w", s.ID, apperr.ErrSessionClosed)
		}

		now := r.now()
		var by *uint
		if cancelledBy != 0 {
			by = &cancelledBy
		}
		if err := tx.CancelOrder(tenantID, o.ID, now, by); err != nil {
			return err
		}

		table, err := tx.Table(tenantID, o.TableID)
		if err != nil {
			return err
		}
		err = appendEvent(tx, events.Payload{
			Type:          events.TypeOrderCancelled,
			TenantID:      tenantID,
			TableID:       o.TableID,
			TableName:     table.Name,
			SessionID:     o.SessionID,
			OrderID:       o.ID,
			CustomerLabel: o.CustomerLabel,
			Message:       fmt.Sprintf("Order #%d of table %s was cancelled", o.ID, table.Name),
			OccurredAt:    now,
		})
		if err != nil {
			return err
		}

		wrote = true
		out, err = tx.Order(tenantID, o.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if wrote {
		r.notify()
		utils.InfoLogger.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"order_id":  out.ID,
		}).Info("order cancelled")
	}
	return out, nil
}

func normalizeStation(station models.Station) (models.Station, error) {
	st, ok := models.ParseStation(string(station))
	if !ok {
		return "", apperr.Validation(fmt.Sprintf("unknown station %q", station))
	}
	return st, nil
}
