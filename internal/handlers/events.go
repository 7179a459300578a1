package handlers

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/vpskeeper/vpskeeper/internal/services"
)

// EventsHandler streams reminder notifications to connected dashboard
// clients over a websocket. It implements services.Broadcaster; a slow or
// dead client is dropped rather than ever blocking the scheduler.
type EventsHandler struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewEventsHandler() *EventsHandler {
	return &EventsHandler{clients: make(map[*websocket.Conn]struct{})}
}

// UpgradeCheck is middleware that checks if the request is a websocket upgrade
func (h *EventsHandler) UpgradeCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// HandleEvents registers the connection and holds it open until the
// client goes away.
func (h *EventsHandler) HandleEvents() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		h.mu.Lock()
		h.clients[c] = struct{}{}
		h.mu.Unlock()
		slog.Debug("Events client connected")

		defer func() {
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
			c.Close()
		}()

		// Drain inbound frames; the stream is one-way.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	})
}

// Broadcast sends one notification event to every connected client.
func (h *EventsHandler) Broadcast(event services.NotificationEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to encode event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.clients, c)
			c.Close()
		}
	}
}
