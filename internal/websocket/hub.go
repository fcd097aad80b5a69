// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

// Package websocket pushes forum notifications to connected browsers.
//
// The Hub owns every connection. Messages are either broadcast to all
// clients (new posts, ranking updates) or delivered to the connections of a
// single user (whispers). A user may hold several connections, one per tab.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types sent to clients.
const (
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
	MessageTypeWhisper        = "whisper"
	MessageTypePostCreated    = "post_created"
	MessageTypeRankingUpdated = "ranking_updated"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// delivery is a message plus its audience. An empty userID means every
// connected client.
type delivery struct {
	userID string
	msg    Message
}

// Hub maintains the set of active clients and routes messages to them.
type Hub struct {
	clients    map[*Client]bool
	byUser     map[string]map[*Client]bool
	outbound   chan delivery
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]map[*Client]bool),
		outbound:   make(chan delivery, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// String names the hub in supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}

// Serve runs the hub until ctx is canceled, then closes every client. It
// implements suture.Service.
//
// Lifecycle events are drained before outbound messages so a client that
// registered before a send always receives it.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case d := <-h.outbound:
			h.deliver(d)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	if client.userID != "" {
		set, ok := h.byUser[client.userID]
		if !ok {
			set = make(map[*Client]bool)
			h.byUser[client.userID] = set
		}
		set[client] = true
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Debug().Str("user_id", client.userID).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	removed := h.removeLocked(client)
	total := len(h.clients)
	h.mu.Unlock()

	if removed {
		logging.Debug().Str("user_id", client.userID).Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// removeLocked drops client from both indexes and closes its send channel.
// Callers hold h.mu.
func (h *Hub) removeLocked(client *Client) bool {
	if _, ok := h.clients[client]; !ok {
		return false
	}
	delete(h.clients, client)
	if set, ok := h.byUser[client.userID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.byUser, client.userID)
		}
	}
	close(client.send)
	metrics.WSConnections.Dec()
	return true
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.ClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// deliver sends d to its audience in client ID order. Clients whose buffer
// is full are disconnected.
func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var targets []*Client
	if d.userID == "" {
		targets = make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			targets = append(targets, c)
		}
	} else {
		for c := range h.byUser[d.userID] {
			targets = append(targets, c)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })

	var slow []*Client
	for _, c := range targets {
		select {
		case c.send <- d.msg:
			metrics.WSMessagesSent.WithLabelValues(d.msg.Type).Inc()
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		metrics.WSMessagesDropped.Inc()
		h.removeLocked(c)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	for _, c := range clients {
		h.removeLocked(c)
	}
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.outbound <- d:
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("message_type", d.msg.Type).Msg("websocket outbound queue full, dropping message")
	}
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	h.enqueue(delivery{msg: Message{Type: messageType, Data: data}})
}

// SendToUser queues a message for every connection of userID. Users
// without a connection are skipped silently.
func (h *Hub) SendToUser(userID, messageType string, data interface{}) {
	if userID == "" {
		return
	}
	h.enqueue(delivery{userID: userID, msg: Message{Type: messageType, Data: data}})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserConnected reports whether userID has at least one open connection.
func (h *Hub) UserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
