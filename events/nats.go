package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/yeremiapane/table-session/models"
)

// SubjectPrefix roots every subject published by NATSPublisher.
const SubjectPrefix = "tableside"

// Subject returns the per-tenant subject of an event type, for example
// "tableside.7.OrderCreated".
func Subject(tenantID uint, eventType string) string {
	return fmt.Sprintf("%s.%d.%s", SubjectPrefix, tenantID, eventType)
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("table-session"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Name() string {
	return "nats"
}

func (p *NATSPublisher) Publish(ctx context.Context, e models.OutboxEvent) error {
	msg := nats.NewMsg(Subject(e.TenantID, e.Type))
	msg.Header.Set("Nats-Msg-Id", e.EventID)
	msg.Data = []byte(e.Payload)
	if err := p.conn.PublishMsg(msg); err != nil {
		return err
	}
	return p.conn.FlushWithContext(ctx)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
