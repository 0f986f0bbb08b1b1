// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package bus fans UI-facing lifecycle messages out to websocket
// subscribers: a share was discovered or disappeared, a session failed to
// connect, or the set of visible tabs changed. It carries none of the
// catalog data itself — that flows over DAAP.
package bus

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/meridian/internal/logging"
)

// ShutdownReason identifies why the hub is shutting down, for
// structured shutdown logs.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for UI lifecycle communication. These mirror the
// lifecycle events BroadcastShareAdded and friends emit, plus the
// ping/pong keepalive pair Client handles directly.
const (
	MessageTypePing               = "ping"
	MessageTypePong               = "pong"
	MessageTypeShareAdded         = "share_added"
	MessageTypeShareDisappeared   = "share_disappeared"
	MessageTypeConnectFailed      = "connect_failed"
	MessageTypeTabsChanged        = "tabs_changed"
	MessageTypeSessionStateChange = "session_state_change"
)

// Message is the envelope every websocket frame carries.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks connected UI clients and fans broadcast messages out to
// all of them. A process runs exactly one Hub; every ClientSession and
// discovery Tracker holds a reference to it for lifecycle
// notifications.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates an empty Hub. Callers must run it via Serve (or the
// deprecated Run) before clients can register.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run starts the hub's event loop with no shutdown path; it blocks
// forever.
//
// Deprecated: use Serve, which is suture-supervisable and exits
// cleanly on context cancellation.
func (h *Hub) Run() {
	_ = h.loop(context.Background())
}

// Serve implements suture.Service, letting a Hub be supervised
// directly alongside the rest of the messaging layer.
func (h *Hub) Serve(ctx context.Context) error {
	return h.RunWithContext(ctx)
}

// RunWithContext runs the hub's event loop until ctx is canceled, at
// which point every connected client is closed and ctx.Err() is
// returned. A supervisor can then restart the Hub without leaking the
// previous run's connections.
func (h *Hub) RunWithContext(ctx context.Context) error {
	return h.loop(ctx)
}

// loop is the hub's single event loop, shared by Run and
// RunWithContext. Client register/unregister events are drained with
// priority over broadcasts, so a client's membership is always settled
// before it can receive (or miss) a message addressed to the set as a
// whole.
func (h *Hub) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", count).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", count).Msg("websocket client disconnected")
}

// shutdown closes every connected client and logs why the loop is
// exiting. ctx.Err() is not logged via .Err() - cancellation here is
// the expected path (a supervisor stop, not a failure).
func (h *Hub) shutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(shutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func shutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// sortedClients returns the hub's current clients ordered by their
// monotonic id. Iterating a Go map directly is randomized per process;
// every broadcast and shutdown must visit clients in the same order
// run to run for tests (and log line diffs) to stay reproducible.
//
// Callers must hold h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

// broadcastToClients fans message out to every connected client,
// dropping (and unregistering) any whose send buffer is full rather
// than blocking the whole hub on one slow UI tab.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var stuck []*Client
	for _, client := range h.sortedClients() {
		select {
		case client.send <- message:
		default:
			stuck = append(stuck, client)
		}
	}
	for _, client := range stuck {
		close(client.send)
		delete(h.clients, client)
	}
}

// closeAllClients closes every connected client's send channel,
// unregistering it. Used during shutdown.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients() {
		close(client.send)
		delete(h.clients, client)
	}
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// BroadcastJSON enqueues an arbitrary typed message for delivery to
// every connected client. A full broadcast buffer drops the message
// rather than blocking the publisher - the catalog/discovery/session
// goroutines that call this must never stall on a slow UI.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := Message{Type: messageType, Data: data}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping JSON message")
	}
}

// ShareEventData carries a share_id and its current advertised name, used
// for share_added and share_disappeared notifications.
type ShareEventData struct {
	ShareID string `json:"share_id"`
	Name    string `json:"name,omitempty"`
}

// BroadcastShareAdded notifies subscribers that a share was discovered.
func (h *Hub) BroadcastShareAdded(shareID, name string) {
	h.BroadcastJSON(MessageTypeShareAdded, ShareEventData{ShareID: shareID, Name: name})
}

// BroadcastShareDisappeared notifies subscribers that a share's mDNS
// record vanished and its grace timer expired.
func (h *Hub) BroadcastShareDisappeared(shareID string) {
	h.BroadcastJSON(MessageTypeShareDisappeared, ShareEventData{ShareID: shareID})
}

// ConnectFailedData reports why a ClientSession could not reach a share.
type ConnectFailedData struct {
	ShareID string `json:"share_id"`
	Reason  string `json:"reason"`
}

// BroadcastConnectFailed notifies subscribers that connecting to a share failed.
func (h *Hub) BroadcastConnectFailed(shareID, reason string) {
	h.BroadcastJSON(MessageTypeConnectFailed, ConnectFailedData{ShareID: shareID, Reason: reason})
}

// TabsChangedData lists the playlist ids a share's tabs changed by: the
// ids a session merge added or changed, or none when the share started
// or stopped tracking.
type TabsChangedData struct {
	ShareID     string   `json:"share_id"`
	PlaylistIDs []string `json:"playlist_ids"`
}

// BroadcastTabsChanged notifies subscribers that the visible tab set for a
// share changed.
func (h *Hub) BroadcastTabsChanged(shareID string, playlistIDs []string) {
	h.BroadcastJSON(MessageTypeTabsChanged, TabsChangedData{ShareID: shareID, PlaylistIDs: playlistIDs})
}

// SessionStateChangeData reports a ClientSession state transition.
type SessionStateChangeData struct {
	ShareID   string    `json:"share_id"`
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// BroadcastSessionStateChange notifies subscribers of a session state transition.
func (h *Hub) BroadcastSessionStateChange(shareID, state string) {
	h.BroadcastJSON(MessageTypeSessionStateChange, SessionStateChangeData{
		ShareID:   shareID,
		State:     state,
		Timestamp: time.Now().UTC(),
	})
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
