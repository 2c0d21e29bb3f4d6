// Package websocket pushes cache-invalidation events to connected
// dashboard clients so mounted views refetch without polling. Clients
// subscribe to resource topics ("doctors", "appointments", ...) and receive
// every mutation event for those resources.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Event tells clients that cached data for a resource changed.
type Event struct {
	Resource  string    `json:"resource"`
	Action    string    `json:"action"`
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Mutation actions carried by invalidation events.
const (
	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionTransition = "transition"
)

// ClientMessage is an inbound subscribe/unsubscribe request.
type ClientMessage struct {
	Action    string   `json:"action"`
	Resources []string `json:"resources"`
}

// EventPublisher is what the mutation layer publishes through.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Client is a single connected dashboard tab.
type Client struct {
	ID        string
	Resources []string
	Send      chan []byte
}

// Hub tracks connected clients and their resource subscriptions.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // resource -> subscribers
	all     map[*Client]struct{}
	logger  zerolog.Logger
}

// NewHub creates a Hub ready to manage clients.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client and subscribes it to its initial resources.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, resource := range client.Resources {
		if h.clients[resource] == nil {
			h.clients[resource] = make(map[*Client]struct{})
		}
		h.clients[resource][client] = struct{}{}
	}
}

// Unregister removes a client from all subscriptions and closes its Send
// channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}

	for _, resource := range client.Resources {
		if subs, ok := h.clients[resource]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.clients, resource)
			}
		}
	}

	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds resources to an already-registered client.
func (h *Hub) Subscribe(client *Client, resources []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, resource := range resources {
		if h.clients[resource] == nil {
			h.clients[resource] = make(map[*Client]struct{})
		}
		h.clients[resource][client] = struct{}{}
	}
	client.Resources = append(client.Resources, resources...)
}

// Unsubscribe removes resources from an already-registered client.
func (h *Hub) Unsubscribe(client *Client, resources []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removeSet := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		removeSet[r] = struct{}{}
	}

	for _, resource := range resources {
		if subs, ok := h.clients[resource]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.clients, resource)
			}
		}
	}

	remaining := make([]string, 0, len(client.Resources))
	for _, r := range client.Resources {
		if _, rm := removeSet[r]; !rm {
			remaining = append(remaining, r)
		}
	}
	client.Resources = remaining
}

// ProcessMessage dispatches an inbound ClientMessage.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(client, msg.Resources)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Resources)
	}
}

// Broadcast sends an event to every subscriber of its resource. A client
// with a full buffer is skipped rather than blocked on.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal invalidation event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[event.Resource] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// Publish implements EventPublisher.
func (h *Hub) Publish(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	h.Broadcast(event)
	return nil
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// SubscriberCount returns the number of clients subscribed to a resource.
func (h *Hub) SubscriberCount(resource string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[resource])
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// Handler upgrades HTTP connections and routes messages to the hub.
type Handler struct {
	hub *Hub
}

// NewHandler creates a Handler bound to the given Hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes registers the updates endpoint on the provided Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws/updates", h.HandleConnect)
}

// HandleConnect upgrades the connection, registers the client and starts
// the read/write pumps.
func (h *Handler) HandleConnect(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:        uuid.New().String(),
		Resources: []string{},
		Send:      make(chan []byte, 256),
	}

	h.hub.Register(client)

	go h.writePump(client, ws)
	go h.readPump(client, ws)

	return nil
}

func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue // Ignore malformed messages.
		}

		h.hub.ProcessMessage(client, msg)
	}
}

func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}
