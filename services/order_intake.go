package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/events"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/store"
	"github.com/yeremiapane/table-session/utils"
)

const (
	DefaultCustomerLabel = "Guest"
	maxCustomerLabel     = 100
	maxNotes             = 500
	MaxItemQuantity      = 999
)

// ItemRequest is one requested line. Prices are never taken from the caller.
type ItemRequest struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

// OrderIntake turns table-side requests into orders.
type OrderIntake struct {
	base
}

func NewOrderIntake(st *store.Store) *OrderIntake {
	return &OrderIntake{base: newBase(st)}
}

// SubmitOrder creates an order for the token's session. Lines whose product is
// unknown, unavailable or owned by another tenant, and lines whose quantity is
// outside 1..MaxItemQuantity, are dropped; if nothing is left the call fails with
// ErrInvalidProducts and no order is created. Each kept line is priced from the
// catalog and tagged with its category's station.
//
// The session row is locked and re-checked inside the transaction, so an order
// can never commit into a session whose close has committed.
func (oi *OrderIntake) SubmitOrder(ctx context.Context, token, customerLabel string, items []ItemRequest) (*models.Order, error) {
	label, err := normalizeLabel(customerLabel)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if utf8.RuneCountInString(it.Notes) > maxNotes {
			return nil, apperr.Validation(fmt.Sprintf("notes must be at most %d characters", maxNotes))
		}
	}

	var order *models.Order
	var dropped int

	err = oi.store.Transaction(ctx, func(tx *store.Tx) error {
		order, dropped = nil, 0

		s, err := tx.LockSessionByToken(token)
		if err != nil {
			return err
		}
		now := oi.now()
		if err := checkOpen(s, now); err != nil {
			return err
		}

		ids := make([]uint, 0, len(items))
		for _, it := range items {
			if validQuantity(it.Quantity) {
				ids = append(ids, it.ProductID)
			}
		}
		catalog, err := tx.OrderableProducts(s.TenantID, ids)
		if err != nil {
			return err
		}

		lines := make([]models.OrderItem, 0, len(items))
		for _, it := range items {
			p, ok := catalog[it.ProductID]
			if !ok || !validQuantity(it.Quantity) {
				dropped++
				continue
			}
			lines = append(lines, models.OrderItem{
				ProductID:   p.Product.ID,
				ProductName: p.Product.Name,
				Quantity:    it.Quantity,
				UnitPrice:   p.Product.Price,
				Station:     p.Station,
				State:       models.ItemPending,
				Notes:       strings.TrimSpace(it.Notes),
			})
		}
		if len(lines) == 0 {
			return apperr.ErrInvalidProducts
		}

		running, err := tx.SessionTotal(s.TenantID, s.ID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			sub, ok := lineTotal(line.UnitPrice, line.Quantity)
			if !ok {
				return errTotalTooLarge
			}
			if running, ok = addTotal(running, sub); !ok {
				return errTotalTooLarge
			}
		}

		o := &models.Order{
			SessionID:     s.ID,
			TableID:       s.TableID,
			CustomerLabel: label,
			State:         models.OrderPending,
			CreatedAt:     now,
			Items:         lines,
		}
		if err := tx.CreateOrder(s.TenantID, o); err != nil {
			return err
		}

		table, err := tx.Table(s.TenantID, s.TableID)
		if err != nil {
			return err
		}
		err = appendEvent(tx, events.Payload{
			Type:          events.TypeOrderCreated,
			TenantID:      s.TenantID,
			TableID:       s.TableID,
			TableName:     table.Name,
			SessionID:     s.ID,
			OrderID:       o.ID,
			CustomerLabel: label,
			ItemCount:     len(lines),
			Message:       fmt.Sprintf("New order #%d from table %s (%s)", o.ID, table.Name, label),
			OccurredAt:    now,
		})
		if err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	oi.notify()
	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant_id":  order.TenantID,
		"session_id": order.SessionID,
		"order_id":   order.ID,
		"items":      len(order.Items),
		"dropped":    dropped,
	}).Info("order submitted")
	return order, nil
}

func normalizeLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return DefaultCustomerLabel, nil
	}
	if utf8.RuneCountInString(label) > maxCustomerLabel {
		return "", apperr.Validation(fmt.Sprintf("customer label must be at most %d characters", maxCustomerLabel))
	}
	return label, nil
}

var errTotalTooLarge = apperr.Validation("order would exceed the maximum session total")

func validQuantity(q int) bool {
	return q > 0 && q <= MaxItemQuantity
}

// lineTotal multiplies price by quantity, reporting false on int64 overflow.
func lineTotal(price int64, quantity int) (int64, bool) {
	if price < 0 {
		return 0, false
	}
	q := int64(quantity)
	if q != 0 && price > math.MaxInt64/q {
		return 0, false
	}
	return price * q, true
}

func addTotal(a, b int64) (int64, bool) {
	if b > math.MaxInt64-a {
		return 0, false
	}
	return a + b, true
}
