package kds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-session/events"
	"github.com/yeremiapane/table-session/models"
)

type display struct {
	tenantID uint
	stations []models.Station
}

// serveDisplays upgrades each connection and binds it to the display chosen by
// the "d" query parameter.
func serveDisplays(t *testing.T, hub *Hub, displays map[string]display) *httptest.Server {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := displays[r.URL.Query().Get("d")]
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, d.tenantID, d.stations)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, name string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?d=" + name
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func event(t *testing.T, tenantID uint, eventType string, station models.Station) models.OutboxEvent {
	e, err := events.New(events.Payload{
		Type:       eventType,
		TenantID:   tenantID,
		TableID:    1,
		TableName:  "T1",
		SessionID:  1,
		Station:    station,
		Message:    eventType,
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)
	return *e
}

func read(t *testing.T, conn *websocket.Conn) (Message, bool) {
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		return Message{}, false
	}
	return msg, true
}

func TestHubRoutesByTenantAndStation(t *testing.T) {
	hub := NewHub()
	srv := serveDisplays(t, hub, map[string]display{
		"kitchen1": {tenantID: 1, stations: []models.Station{models.StationKitchen}},
		"bar1":     {tenantID: 1, stations: []models.Station{models.StationBar}},
		"kitchen2": {tenantID: 2, stations: []models.Station{models.StationKitchen}},
	})

	kitchen1 := dial(t, srv, "kitchen1")
	bar1 := dial(t, srv, "bar1")
	kitchen2 := dial(t, srv, "kitchen2")

	require.Eventually(t, func() bool {
		return hub.ClientCount(1) == 2 && hub.ClientCount(2) == 1
	}, time.Second, 10*time.Millisecond)

	ctx := context.Background()

	// Events without a station reach every display of the tenant.
	require.NoError(t, hub.Publish(ctx, event(t, 1, events.TypeOrderCreated, "")))
	for _, conn := range []*websocket.Conn{kitchen1, bar1} {
		msg, ok := read(t, conn)
		require.True(t, ok)
		assert.Equal(t, events.TypeOrderCreated, msg.Event)
	}

	require.NoError(t, hub.Publish(ctx, event(t, 1, events.TypeItemsFulfilled, models.StationKitchen)))
	msg, ok := read(t, kitchen1)
	require.True(t, ok)
	assert.Equal(t, events.TypeItemsFulfilled, msg.Event)
	assert.Equal(t, uint(1), msg.Data.TenantID)

	// A timed out read leaves the connection unusable, so these come last.
	_, ok = read(t, bar1)
	assert.False(t, ok, "bar does not see kitchen events")
	_, ok = read(t, kitchen2)
	assert.False(t, ok, "other tenant sees nothing")
}

func TestHubForgetsClosedDisplays(t *testing.T) {
	hub := NewHub()
	srv := serveDisplays(t, hub, map[string]display{
		"k": {tenantID: 7, stations: []models.Station{models.StationKitchen}},
	})

	conn := dial(t, srv, "k")
	require.Eventually(t, func() bool { return hub.ClientCount(7) == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount(7) == 0 }, time.Second, 10*time.Millisecond)
}
