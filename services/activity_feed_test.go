package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-session/events"
)

func TestActivityFeedIsTenantScopedNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token := f.open(t, f.a.TableA)
	order := f.submit(t, token, "Ana", item(f.a.Burger, 1))
	f.open(t, f.b.TableA)

	feed, err := f.activity.Recent(ctx, f.a.Tenant.ID, 0)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, events.TypeOrderCreated, feed[0].Type)
	assert.Equal(t, order.ID, feed[0].OrderID)
	assert.Equal(t, events.TypeSessionOpened, feed[1].Type)
	for _, p := range feed {
		assert.Equal(t, f.a.Tenant.ID, p.TenantID)
		assert.NotEmpty(t, p.EventID)
	}

	feed, err = f.activity.Recent(ctx, f.a.Tenant.ID, 1)
	require.NoError(t, err)
	assert.Len(t, feed, 1)

	feed, err = f.activity.Recent(ctx, f.b.Tenant.ID, 500)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, events.TypeSessionOpened, feed[0].Type)
}
