package hub

import (
	"sort"
	"sync"

	"github.com/dnlflores/starter-ios-app-backend/pkg/log"
)

// Hub maps user ids to their single live connection. At most one client is
// bound to a user; a newer registration replaces the older one.
type Hub struct {
	clients map[*Client]struct{} // every accepted transport
	users   map[int64]*Client    // userID -> authenticated client
	owners  map[*Client]int64    // client -> bound userID
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		users:   make(map[int64]*Client),
		owners:  make(map[*Client]int64),
	}
}

// Track records an accepted transport so CloseAll can reach it before it authenticates.
func (h *Hub) Track(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
}

// Register binds userID to client and returns the client it replaced, if any.
// The replaced client is left open; closing it is the caller's decision.
func (h *Hub) Register(userID int64, client *Client) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = struct{}{}

	// Re-authentication as another user drops the old binding.
	if old, ok := h.owners[client]; ok && old != userID {
		if h.users[old] == client {
			delete(h.users, old)
		}
	}

	prev := h.users[userID]
	if prev == client {
		prev = nil
	}
	if prev != nil {
		delete(h.owners, prev)
	}

	h.users[userID] = client
	h.owners[client] = userID

	l := log.L()
	l.Debug().Str(log.FieldConnID, client.ID).Int64(log.FieldUserID, userID).
		Bool("replaced", prev != nil).Msg("client registered")

	return prev
}

// Unregister forgets client. The user entry is removed only if it still
// points at this client, so a late disconnect never evicts a newer connection.
func (h *Hub) Unregister(client *Client) (int64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, client)

	userID, ok := h.owners[client]
	if !ok {
		return 0, false
	}
	delete(h.owners, client)

	if h.users[userID] != client {
		return userID, false
	}
	delete(h.users, userID)

	l := log.L()
	l.Debug().Str(log.FieldConnID, client.ID).Int64(log.FieldUserID, userID).Msg("client unregistered")

	return userID, true
}

func (h *Hub) Lookup(userID int64) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.users[userID]
	return c, ok
}

func (h *Hub) IsOnline(userID int64) bool {
	_, ok := h.Lookup(userID)
	return ok
}

// OnlineUsers returns a sorted snapshot of bound user ids.
func (h *Hub) OnlineUsers() []int64 {
	h.mu.RLock()
	ids := make([]int64, 0, len(h.users))
	for id := range h.users {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of bound users.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}

// ConnectionCount includes transports that have not authenticated yet.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every tracked client and empties the registry.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.users = make(map[int64]*Client)
	h.owners = make(map[*Client]int64)
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}

	l := log.L()
	l.Info().Int("clients", len(clients)).Msg("hub closed all clients")
}
