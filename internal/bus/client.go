// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package bus

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tomtom215/meridian/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB
)

// clientIDCounter assigns each Client a unique, monotonically
// increasing id, used purely to give broadcastToClients/closeAllClients
// a stable, reproducible iteration order over the hub's client set.
var clientIDCounter atomic.Uint64

// Client is a websocket-connected UI tab. It relays Hub broadcasts to
// the socket and answers the socket's ping messages with a pong.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient wraps conn in a Client registered against hub, with a
// buffered outbound queue deep enough to absorb a burst of lifecycle
// events (several shares appearing from one mDNS rebroadcast) without
// dropping frames.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, 256),
	}
}

// ID returns the client's assigned id.
func (c *Client) ID() uint64 {
	return c.id
}

// readPump drains frames from the socket, answering pings with a pong
// and discarding everything else - the UI has nothing to say to the
// hub beyond keeping the connection alive. It exits (unregistering
// itself) on any read error, including the client closing its side.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Uint64("client_id", c.id).Msg("bus: failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Uint64("client_id", c.id).Msg("bus: unexpected websocket close")
			}
			return
		}
		if msg.Type == MessageTypePing {
			select {
			case c.send <- Message{Type: MessageTypePong}:
			default:
				// send buffer full; the client will retry its ping.
			}
		}
	}
}

// writePump delivers queued Hub broadcasts to the socket and keeps the
// connection alive with periodic pings. It exits once the hub closes
// c.send (on unregister) or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, open := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Uint64("client_id", c.id).Msg("bus: failed to set write deadline")
				return
			}
			if !open {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Error().Err(err).Uint64("client_id", c.id).Msg("bus: failed to write close frame")
				}
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Uint64("client_id", c.id).Str("message_type", message.Type).Msg("bus: failed to write message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Uint64("client_id", c.id).Msg("bus: failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start launches the client's read and write pumps. Callers (the
// websocket upgrade handler) must have already sent c on hub.Register.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
