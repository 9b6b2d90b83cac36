package websocket

import (
	"encoding/json"
	"log"
	"time"

	"campustrade/internal/infrastructure/ratelimit"
)

// WebSocket Message Types
const (
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
	MessageTypeMessage       = "message"
	MessageTypeDealUpdate    = "deal_update"
	MessageTypeNotification  = "notification"
	MessageTypeTyping        = "typing"
	MessageTypeJoinChatRoom  = "join_chat_room"
	MessageTypeLeaveChatRoom = "leave_chat_room"
	MessageTypeAck           = "ack"
	MessageTypeError         = "error"
)

// WSMessage is the envelope for every frame on the wire
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	ChatID    string      `json:"chat_id,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type TypingData struct {
	ChatID    string `json:"chat_id"`
	UserID    string `json:"user_id"`
	Typing    bool   `json:"typing"`
	ExpiresAt string `json:"expires_at"`
}

type AckData struct {
	MessageID string `json:"message_id"`
}

// Envelope wraps a typed payload in the wire format used by all pushes
func Envelope(messageType, chatID string, data interface{}) []byte {
	payload, err := json.Marshal(WSMessage{
		Type:      messageType,
		Data:      data,
		ChatID:    chatID,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("WebSocket: Failed to marshal %s envelope: %v", messageType, err)
		return nil
	}
	return payload
}

// HandleClientMessage processes incoming WebSocket messages
func (m *Manager) HandleClientMessage(client *Client, messageBytes []byte) {
	var wsMessage WSMessage

	if err := json.Unmarshal(messageBytes, &wsMessage); err != nil {
		log.Printf("WebSocket: Failed to unmarshal message from client %s: %v", client.UserID, err)
		m.sendErrorToClient(client, "Invalid message format")
		return
	}

	switch wsMessage.Type {
	case MessageTypePing:
		m.handlePing(client)

	case MessageTypeJoinChatRoom:
		m.handleJoinChatRoom(client, wsMessage)

	case MessageTypeLeaveChatRoom:
		m.handleLeaveChatRoom(client, wsMessage)

	case MessageTypeTyping:
		m.handleTyping(client, wsMessage)

	case MessageTypeAck:
		m.handleAck(client, wsMessage)

	default:
		log.Printf("WebSocket: Unknown message type '%s' from client %s", wsMessage.Type, client.UserID)
		m.sendErrorToClient(client, "Unknown message type")
	}
}

func (m *Manager) handlePing(client *Client) {
	m.deliver(client, Envelope(MessageTypePong, "", map[string]string{"status": "alive"}))
}

func (m *Manager) handleJoinChatRoom(client *Client, wsMessage WSMessage) {
	if wsMessage.ChatID == "" {
		m.sendErrorToClient(client, "Missing chat_id")
		return
	}

	m.AddClientToChatRoom(wsMessage.ChatID, client.UserID)
	client.ActiveChatRoom = wsMessage.ChatID

	log.Printf("WebSocket: Client %s joined chat room %s", client.UserID, wsMessage.ChatID)
}

func (m *Manager) handleLeaveChatRoom(client *Client, wsMessage WSMessage) {
	if wsMessage.ChatID == "" {
		m.sendErrorToClient(client, "Missing chat_id")
		return
	}

	m.RemoveClientFromChatRoom(wsMessage.ChatID, client.UserID)
	if client.ActiveChatRoom == wsMessage.ChatID {
		client.ActiveChatRoom = ""
	}

	log.Printf("WebSocket: Client %s left chat room %s", client.UserID, wsMessage.ChatID)
}

func (m *Manager) handleTyping(client *Client, wsMessage WSMessage) {
	if wsMessage.ChatID == "" {
		m.sendErrorToClient(client, "Missing chat_id")
		return
	}

	// Typing indicators are pure fan-out; a flooding client is throttled
	// silently rather than sent an error frame.
	if allowed, _ := m.rateLimiter.Allow(client.UserID, ratelimit.ActionTyping); !allowed {
		return
	}

	typingData := TypingData{
		ChatID:    wsMessage.ChatID,
		UserID:    client.UserID,
		Typing:    true,
		ExpiresAt: time.Now().Add(5 * time.Second).Format(time.RFC3339),
	}
	if data, ok := wsMessage.Data.(map[string]interface{}); ok {
		if typing, ok := data["typing"].(bool); ok {
			typingData.Typing = typing
		}
	}

	m.SendToChatRoom(wsMessage.ChatID, Envelope(MessageTypeTyping, wsMessage.ChatID, typingData), client.UserID)
}

func (m *Manager) handleAck(client *Client, wsMessage WSMessage) {
	if wsMessage.ChatID == "" {
		m.sendErrorToClient(client, "Missing chat_id")
		return
	}

	data, ok := wsMessage.Data.(map[string]interface{})
	if !ok {
		m.sendErrorToClient(client, "Invalid data format")
		return
	}

	messageID, ok := data["message_id"].(string)
	if !ok || messageID == "" {
		m.sendErrorToClient(client, "Missing message_id in data")
		return
	}

	m.Acknowledge(client, wsMessage.ChatID, messageID)
}

func (m *Manager) sendErrorToClient(client *Client, errorMsg string) {
	m.deliver(client, Envelope(MessageTypeError, "", map[string]string{
		"error":   errorMsg,
		"user_id": client.UserID,
	}))
}
