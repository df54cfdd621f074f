// Package notify fans committed game events out to external consumers.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
	"github.com/builders-garden/squabble-engine/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// subscriber is one websocket consumer of the event stream
type subscriber struct {
	id        int64
	conn      *websocket.Conn
	send      chan []byte
	hub       *WSHub
	closeOnce sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.send)
		s.conn.Close()
	})
}

// WSHub implements domain.EventPublisher by broadcasting event JSON to every
// connected websocket subscriber. Slow subscribers are dropped, never waited
// on: settlement must not block on a consumer.
type WSHub struct {
	mu     sync.RWMutex
	subs   map[int64]*subscriber
	nextID int64
}

// NewWSHub creates a new websocket hub
func NewWSHub() *WSHub {
	return &WSHub{subs: make(map[int64]*subscriber)}
}

// Publish implements domain.EventPublisher
func (h *WSHub) Publish(ctx context.Context, event *domain.GameEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error(ctx).Err(err).Str("event_id", event.EventID).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			// Buffer full, drop this subscriber.
			go h.remove(sub)
		}
	}
}

// HandleWS upgrades the request and registers the connection as a subscriber
func (h *WSHub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context()).Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.nextID++
	sub := &subscriber{
		id:   h.nextID,
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}
	h.subs[sub.id] = sub
	h.mu.Unlock()

	go sub.writePump()
	go sub.readPump()
}

func (h *WSHub) remove(sub *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub.id]; ok {
		delete(h.subs, sub.id)
	}
	h.mu.Unlock()
	sub.close()
}

// Subscribers returns the number of connected consumers
func (h *WSHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// writePump pushes queued events and keeps the connection alive with pings
func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.hub.remove(s)
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the stream is push-only
func (s *subscriber) readPump() {
	defer s.hub.remove(s)

	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
