// Package events defines the domain events emitted after commit and the
// publishers that deliver them.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/yeremiapane/table-session/models"
)

const (
	TypeSessionOpened        = "SessionOpened"
	TypeOrderCreated         = "OrderCreated"
	TypeItemsFulfilled       = "ItemsFulfilled"
	TypeOrderCancelled       = "OrderCancelled"
	TypeSessionBillRequested = "SessionBillRequested"
	TypeSessionClosed        = "SessionClosed"
)

// Payload is the JSON body of every event. It is denormalized so that a
// notifier can describe the event to a human without further lookups.
type Payload struct {
	EventID       string         `json:"event_id"`
	Type          string         `json:"type"`
	TenantID      uint           `json:"tenant_id"`
	TableID       uint           `json:"table_id"`
	TableName     string         `json:"table_name"`
	SessionID     uint           `json:"session_id"`
	OrderID       uint           `json:"order_id,omitempty"`
	Station       models.Station `json:"station,omitempty"`
	CustomerLabel string         `json:"customer_label,omitempty"`
	ItemCount     int            `json:"item_count,omitempty"`
	Total         *int64         `json:"total,omitempty"`
	Message       string         `json:"message"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

// New builds the outbox row for p, assigning a fresh event id.
func New(p Payload) (*models.OutboxEvent, error) {
	p.EventID = uuid.NewString()
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	e := &models.OutboxEvent{
		EventID:   p.EventID,
		TenantID:  p.TenantID,
		Type:      p.Type,
		TableID:   p.TableID,
		SessionID: p.SessionID,
		Station:   p.Station,
		Payload:   string(body),
		CreatedAt: p.OccurredAt,
	}
	if p.OrderID != 0 {
		id := p.OrderID
		e.OrderID = &id
	}
	return e, nil
}

// Decode parses the payload of an outbox row.
func Decode(e models.OutboxEvent) (Payload, error) {
	var p Payload
	err := json.Unmarshal([]byte(e.Payload), &p)
	return p, err
}

// Publisher delivers committed events. Implementations must route by the
// event's tenant and never deliver it to another tenant's subscribers.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, e models.OutboxEvent) error
}
