package services

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/models"
)

const (
	EventNotificationCreated = "notification.created"
	EventUnreadCount         = "notification.unread_count"
)

var ErrConnNotRegistered = errors.New("connection is not registered")

// Event is the JSON frame pushed to inbox clients
type Event struct {
	Type         string                   `json:"type"`
	Notification *models.NotificationView `json:"notification,omitempty"`
	UnreadCount  *int64                   `json:"unread_count,omitempty"`
}

// Conn is the write side of a live connection
type Conn interface {
	WriteJSON(v interface{}) error
}

type client struct {
	mu   sync.Mutex
	conn Conn
}

// Hub tracks live inbox connections per user
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*client]struct{}
	log     *logrus.Entry
}

func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		clients: make(map[uint]map[*client]struct{}),
		log:     log,
	}
}

// Register adds conn to userID's connections. The returned func removes it
// and is safe to call more than once.
func (h *Hub) Register(userID uint, conn Conn) func() {
	c := &client{conn: conn}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	return func() { h.remove(userID, c) }
}

func (h *Hub) remove(userID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, userID)
		}
	}
}

// Connections reports how many live connections userID has
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Send writes event to conn alone, provided it is registered for userID.
// A failing connection is dropped like in Publish.
func (h *Hub) Send(userID uint, conn Conn, event Event) error {
	h.mu.RLock()
	var target *client
	for c := range h.clients[userID] {
		if c.conn == conn {
			target = c
			break
		}
	}
	h.mu.RUnlock()
	if target == nil {
		return ErrConnNotRegistered
	}

	target.mu.Lock()
	err := target.conn.WriteJSON(event)
	target.mu.Unlock()
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("dropping inbox connection")
		h.remove(userID, target)
	}
	return err
}

// Publish writes event to every connection of userID. A connection that
// fails to accept the write is dropped.
func (h *Hub) Publish(userID uint, event Event) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.mu.Lock()
		err := c.conn.WriteJSON(event)
		c.mu.Unlock()
		if err != nil {
			h.log.WithError(err).WithField("user_id", userID).Warn("dropping inbox connection")
			h.remove(userID, c)
		}
	}
}
