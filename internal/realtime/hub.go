package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

// Client is one connected SSE stream for a user.
type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Outbound chan Message
	done     chan struct{}
}

func (c *Client) Done() <-chan struct{} { return c.done }

// Hub fans events out to the local UI over in-process channels. Slow
// consumers drop messages rather than block the publisher.
type Hub struct {
	mu      sync.RWMutex
	log     *logger.Logger
	clients map[uuid.UUID]map[*Client]bool
}

func NewHub(baseLog *logger.Logger) *Hub {
	return &Hub{
		log:     baseLog.With("component", "RealtimeHub"),
		clients: make(map[uuid.UUID]map[*Client]bool),
	}
}

func (h *Hub) Subscribe(userID uuid.UUID) *Client {
	client := &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan Message, 16),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*Client]bool)
		h.clients[userID] = set
	}
	set[client] = true
	h.log.Debug("realtime client subscribed", "client_id", client.ID, "user_id", userID)
	return client
}

func (h *Hub) Unsubscribe(client *Client) {
	if client == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[client.UserID]; ok {
		if set[client] {
			delete(set, client)
			close(client.done)
		}
		if len(set) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	h.log.Debug("realtime client unsubscribed", "client_id", client.ID)
}

func (h *Hub) Publish(userID uuid.UUID, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.Outbound <- msg:
		default:
			h.log.Debug("dropping realtime message for slow client", "client_id", client.ID, "event", msg.Event)
		}
	}
}
