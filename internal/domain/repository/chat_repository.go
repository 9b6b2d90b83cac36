package repository

import (
	"context"

	"campustrade/internal/domain/entity"
)

type ChatRepository interface {
	// Create fails with a CONFLICT error when a session with the same id
	// already exists; the caller resolves the race by re-reading.
	Create(ctx context.Context, chat *entity.ChatSession) error
	GetByID(ctx context.Context, id string) (*entity.ChatSession, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.ChatSession, int64, error)

	// RecordLastMessage updates the session's chat-list fields and bumps the
	// recipients' unread counters. Implementations must touch only those
	// fields; the session document also carries the active deal pointer,
	// which is owned by the deal repository and may change concurrently.
	RecordLastMessage(ctx context.Context, chatID string, message *entity.Message, recipients []string) error
	// ClearUnread resets one participant's unread counter to zero.
	ClearUnread(ctx context.Context, chatID, userID string) error

	// Message log. CreateMessage assigns a ULID and timestamp when absent.
	CreateMessage(ctx context.Context, message *entity.Message) error
	// ListMessagesSince returns messages ordered by (sentAt, id) ascending,
	// strictly after the message identified by afterID (all from the start
	// when afterID is empty).
	ListMessagesSince(ctx context.Context, chatID, afterID string, limit int) ([]*entity.Message, error)
	GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error)
	UpdateMessageReadStatus(ctx context.Context, chatID, messageID, userID string) error
}
