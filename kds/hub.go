// Package kds pushes domain events to kitchen and bar displays over websockets.
package kds

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-session/events"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Message is the frame sent to displays.
type Message struct {
	Event string         `json:"event"`
	Data  events.Payload `json:"data"`
}

type client struct {
	conn     *websocket.Conn
	tenantID uint
	stations map[models.Station]bool
	send     chan []byte
}

// wants reports whether the client should see an event of the tenant for
// station. Events without a station go to every display of the tenant.
func (c *client) wants(tenantID uint, station models.Station) bool {
	if c.tenantID != tenantID {
		return false
	}
	return station == "" || c.stations[station]
}

// Hub holds the connected displays. It never sends an event to a display of
// another tenant.
type Hub struct {
	clients map[*client]struct{}
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) Name() string {
	return "kds"
}

// Serve registers conn for the tenant's stations and blocks until the peer
// goes away.
func (h *Hub) Serve(conn *websocket.Conn, tenantID uint, stations []models.Station) {
	c := &client{
		conn:     conn,
		tenantID: tenantID,
		stations: make(map[models.Station]bool, len(stations)),
		send:     make(chan []byte, sendBuffer),
	}
	for _, s := range stations {
		c.stations[s] = true
	}

	h.mutex.Lock()
	h.clients[c] = struct{}{}
	h.mutex.Unlock()

	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"stations":  stations,
	}).Info("display connected")

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump only drains control frames; displays do not send commands.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Publish fans an event out to the matching displays. A display whose buffer
// is full is dropped; it reloads its queue on reconnect.
func (h *Hub) Publish(ctx context.Context, e models.OutboxEvent) error {
	payload, err := events.Decode(e)
	if err != nil {
		return err
	}
	data, err := json.Marshal(Message{Event: e.Type, Data: payload})
	if err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for c := range h.clients {
		if !c.wants(e.TenantID, e.Station) {
			continue
		}
		select {
		case c.send <- data:
		default:
			utils.ErrorLogger.WithFields(logrus.Fields{"tenant_id": c.tenantID}).Error("display too slow, disconnecting")
			delete(h.clients, c)
			close(c.send)
		}
	}
	return nil
}

// ClientCount returns the number of connected displays of the tenant.
func (h *Hub) ClientCount(tenantID uint) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	n := 0
	for c := range h.clients {
		if c.tenantID == tenantID {
			n++
		}
	}
	return n
}
