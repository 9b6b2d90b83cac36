package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"campustrade/internal/infrastructure/ratelimit"
)

// Client represents a WebSocket connection client
type Client struct {
	UserID         string
	Conn           *websocket.Conn
	Send           chan []byte
	ActiveChatRoom string

	// Last message ID the client acknowledged, per chat. Message IDs are
	// ULIDs, so a plain string comparison orders them by send time.
	acked map[string]string

	// Guards Send against the close that runs on unregister, reconnect
	// replacement and slow-client drops. Sending on a closed channel panics,
	// and deliveries happen outside the manager mutex.
	sendMu sync.Mutex
	closed bool
}

// trySend queues a payload without blocking. Returns false when the buffer
// is full; a payload for an already-closed client is silently dropped.
func (c *Client) trySend(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return true
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Manager manages all active WebSocket connections and chat room membership
type Manager struct {
	clients         map[string]*Client
	chatRoomClients map[string]map[string]bool
	Register        chan *Client
	Unregister      chan *Client
	mutex           sync.RWMutex
	rateLimiter     *ratelimit.RateLimiter
}

// NewManager creates a new WebSocket connection manager
func NewManager() *Manager {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &Manager{
		clients:         make(map[string]*Client),
		chatRoomClients: make(map[string]map[string]bool),
		Register:        make(chan *Client),
		Unregister:      make(chan *Client),
		rateLimiter:     rateLimiter,
	}
}

// Start runs the manager's main loop in a goroutine
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				// A reconnecting user replaces the stale connection.
				if old, ok := m.clients[client.UserID]; ok {
					old.closeSend()
				}
				if client.acked == nil {
					client.acked = make(map[string]string)
				}
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				log.Printf("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if current, ok := m.clients[client.UserID]; ok && current == client {
					delete(m.clients, client.UserID)
					for chatID := range m.chatRoomClients {
						delete(m.chatRoomClients[chatID], client.UserID)
					}
					client.closeSend()
				}
				m.mutex.Unlock()
				log.Printf("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// AddClientToChatRoom subscribes a user's connection to a chat room
func (m *Manager) AddClientToChatRoom(chatID, userID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.chatRoomClients[chatID] == nil {
		m.chatRoomClients[chatID] = make(map[string]bool)
	}
	m.chatRoomClients[chatID][userID] = true
}

// RemoveClientFromChatRoom unsubscribes a user's connection from a chat room
func (m *Manager) RemoveClientFromChatRoom(chatID, userID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if clients, ok := m.chatRoomClients[chatID]; ok {
		delete(clients, userID)
		if len(clients) == 0 {
			delete(m.chatRoomClients, chatID)
		}
	}
}

// RemoveClient drops a user's connection and all its room subscriptions
func (m *Manager) RemoveClient(userID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.removeClientLocked(userID)
}

func (m *Manager) removeClientLocked(userID string) {
	if _, ok := m.clients[userID]; ok {
		delete(m.clients, userID)
		for chatID := range m.chatRoomClients {
			delete(m.chatRoomClients[chatID], userID)
		}
	}
}

// SendToUser sends a payload to a specific user if connected
func (m *Manager) SendToUser(userID string, payload []byte) {
	m.mutex.RLock()
	client, ok := m.clients[userID]
	m.mutex.RUnlock()

	if !ok {
		return
	}
	m.deliver(client, payload)
}

// SendToChatRoom sends a payload to every subscriber of a chat room,
// optionally excluding one user (usually the sender).
func (m *Manager) SendToChatRoom(chatID string, payload []byte, excludeUserID string) {
	m.mutex.RLock()
	var targets []*Client
	for userID := range m.chatRoomClients[chatID] {
		if userID == excludeUserID {
			continue
		}
		if client, ok := m.clients[userID]; ok {
			targets = append(targets, client)
		}
	}
	m.mutex.RUnlock()

	for _, client := range targets {
		m.deliver(client, payload)
	}
}

// BroadcastMessage fans a chat message out to room subscribers. Delivery is
// at-least-once; a subscriber that already acknowledged this or a later
// message ID for the chat is skipped so retries do not produce duplicates.
func (m *Manager) BroadcastMessage(chatID, messageID string, payload []byte, excludeUserID string) {
	m.mutex.RLock()
	var targets []*Client
	for userID := range m.chatRoomClients[chatID] {
		if userID == excludeUserID {
			continue
		}
		client, ok := m.clients[userID]
		if !ok {
			continue
		}
		if last, seen := client.acked[chatID]; seen && last >= messageID {
			continue
		}
		targets = append(targets, client)
	}
	m.mutex.RUnlock()

	for _, client := range targets {
		m.deliver(client, payload)
	}
}

// Acknowledge records the newest message ID a client has seen for a chat
func (m *Manager) Acknowledge(client *Client, chatID, messageID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if last, ok := client.acked[chatID]; !ok || messageID > last {
		client.acked[chatID] = messageID
	}
}

// deliver pushes a payload onto one client's send channel. A client that
// cannot keep up is dropped so the rest of the room is unaffected.
func (m *Manager) deliver(client *Client, payload []byte) {
	if client.trySend(payload) {
		return
	}

	log.Printf("WebSocket: Client %s send channel full, closing connection", client.UserID)
	m.mutex.Lock()
	if current, ok := m.clients[client.UserID]; ok && current == client {
		m.removeClientLocked(client.UserID)
	}
	m.mutex.Unlock()
	client.closeSend()
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}

		m.HandleClientMessage(c, message)
	}
}

// WritePump sends messages to the WebSocket connection
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		err := c.Conn.WriteMessage(websocket.TextMessage, message)
		if err != nil {
			log.Printf("error: %v", err)
			return
		}
	}
}
