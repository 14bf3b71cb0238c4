package services

import (
	"context"

	"github.com/yeremiapane/table-session/events"
	"github.com/yeremiapane/table-session/store"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

// ActivityFeed reads back the tenant's recent events from the outbox, the
// same payloads the displays receive.
type ActivityFeed struct {
	store *store.Store
}

func NewActivityFeed(st *store.Store) *ActivityFeed {
	return &ActivityFeed{store: st}
}

// Recent returns up to limit events of the tenant, newest first.
func (f *ActivityFeed) Recent(ctx context.Context, tenantID uint, limit int) ([]events.Payload, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	rows, err := f.store.Reader(ctx).TenantEvents(tenantID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]events.Payload, 0, len(rows))
	for _, row := range rows {
		p, err := events.Decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
