package usecase

// Broadcaster is the realtime fan-out surface the usecases publish to. The
// websocket Manager satisfies it; tests substitute an in-memory recorder.
type Broadcaster interface {
	// BroadcastMessage delivers a chat message to room subscribers at least
	// once; subscribers that already acknowledged the message ID are skipped.
	BroadcastMessage(chatID, messageID string, payload []byte, excludeUserID string)
	SendToChatRoom(chatID string, payload []byte, excludeUserID string)
	SendToUser(userID string, payload []byte)
}
