// internal/interfaces/websocket/hub.go
package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// Client is one live connection owned by a user
type Client struct {
	userID uint
	conn   *websocket.Conn
	mu     sync.Mutex
}

// UserID returns the owner of the connection
func (c *Client) UserID() uint { return c.userID }

// writeJSON serializes writes; gorilla connections allow a single concurrent writer
func (c *Client) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(payload)
}

func (c *Client) writeControl(messageType int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(messageType, nil, time.Now().Add(writeWait))
}

// Hub tracks live connections per user. It is safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*Client]struct{}
	logger  logrus.FieldLogger
}

// NewHub creates an empty hub
func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		clients: make(map[uint]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds conn under userID
func (h *Hub) Register(userID uint, conn *websocket.Conn) *Client {
	client := &Client{userID: userID, conn: conn}

	h.mu.Lock()
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[userID] = set
	}
	set[client] = struct{}{}
	h.mu.Unlock()

	h.logger.WithField("user_id", userID).Debug("websocket client registered")
	return client
}

// Unregister removes and closes the client. It is idempotent.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	set, ok := h.clients[client.userID]
	if ok {
		if _, present := set[client]; !present {
			ok = false
		} else {
			delete(set, client)
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		}
	}
	h.mu.Unlock()

	if ok {
		client.conn.Close()
		h.logger.WithField("user_id", client.userID).Debug("websocket client unregistered")
	}
}

// SendToUser writes payload as JSON to every connection of userID and returns how many succeeded.
// Connections whose write fails are dropped.
func (h *Hub) SendToUser(userID uint, payload interface{}) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for client := range h.clients[userID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range targets {
		if err := client.writeJSON(payload); err != nil {
			h.logger.WithError(err).WithField("user_id", userID).Warn("dropping websocket client after failed write")
			h.Unregister(client)
			continue
		}
		delivered++
	}
	return delivered
}

// Connections returns the number of live connections for userID
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[uint]map[*Client]struct{})
	h.mu.Unlock()

	for _, set := range all {
		for client := range set {
			client.writeControl(websocket.CloseMessage)
			client.conn.Close()
		}
	}
}
