package hub

import (
	"sync"

	"foodgram/backend/internal/logging"

	"github.com/goccy/go-json"
)

const EventRecipePublished = "recipe_published"

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client is one open feed stream. The SSE handler drains it until it is
// closed by Unsubscribe.
type Client chan []byte

// Hub fans events out to the open feed streams of each user.
type Hub struct {
	users map[uint]map[Client]bool
	mu    sync.RWMutex
}

// GlobalHub is the singleton instance of our Hub.
var GlobalHub = NewHub()

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		users: make(map[uint]map[Client]bool),
	}
}

// Subscribe registers a stream for userID.
func (h *Hub) Subscribe(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[Client]bool)
	}
	h.users[userID][client] = true
}

// Unsubscribe removes and closes a stream.
func (h *Hub) Unsubscribe(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.users[userID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client)
			if len(clients) == 0 {
				delete(h.users, userID)
			}
		}
	}
}

// Connected returns the number of open streams across all users.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.users {
		n += len(clients)
	}
	return n
}

// Broadcast sends event to every stream of every user in userIDs.
func (h *Hub) Broadcast(userIDs []uint, event Event) {
	messageBytes, err := json.Marshal(event)
	if err != nil {
		logging.Error().Err(err).Str("type", event.Type).Msg("failed to encode hub event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range userIDs {
		for client := range h.users[userID] {
			// A slow stream drops events instead of blocking the publisher.
			select {
			case client <- messageBytes:
			default:
			}
		}
	}
}
