package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campustrade/internal/domain/entity"
	"campustrade/internal/domain/repository"
	"campustrade/pkg/errors"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

// Create relies on the deterministic session id: Firestore's Create
// precondition rejects a second write to the same triple, so two racing
// callers cannot produce two sessions. The loser gets CONFLICT and re-reads.
func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.ChatSession) error {
	if chat.ID == "" {
		chat.ID = entity.ChatSessionID(chat.BuyerID, chat.SellerID, chat.ListingID)
	}
	if chat.Participants == nil {
		chat.Participants = []string{chat.BuyerID, chat.SellerID}
	}
	if chat.UnreadCount == nil {
		chat.UnreadCount = make(map[string]int)
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	chat.LastMessageAt = now

	_, err := r.client.Collection(chatSessionsCollection).Doc(chat.ID).Create(ctx, chat)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("chat session already exists for this buyer, seller and listing")
		}
		return wrapFirestoreError(err, "Failed to create chat session")
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.ChatSession, error) {
	doc, err := r.client.Collection(chatSessionsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat session", err)
		}
		return nil, wrapFirestoreError(err, "Failed to get chat session")
	}

	var chat entity.ChatSession
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat session data", err)
	}

	return &chat, nil
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.ChatSession, int64, error) {
	query := r.client.Collection(chatSessionsCollection).
		Where("participants", "array-contains", userID).
		OrderBy("lastMessageAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, wrapFirestoreError(err, "Failed to fetch chat sessions")
	}

	total := int64(len(allDocs))

	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var chats []*entity.ChatSession
	for i := start; i < end; i++ {
		var chat entity.ChatSession
		if err := allDocs[i].DataTo(&chat); err != nil {
			continue // skip malformed documents
		}
		chats = append(chats, &chat)
	}

	return chats, total, nil
}

// RecordLastMessage writes only the named field paths. A whole-document Set
// here would race with the deal transaction that commits activeDealId on the
// same document: a stale struct written back would erase the pointer and let
// a second proposal through. Unread counters use firestore.Increment so
// concurrent senders never lose each other's bumps.
func (r *firestoreChatRepository) RecordLastMessage(ctx context.Context, chatID string, message *entity.Message, recipients []string) error {
	updates := []firestore.Update{
		{Path: "lastMessage", Value: message.Content},
		{Path: "lastMessageAt", Value: message.SentAt},
		{Path: "updatedAt", Value: message.SentAt},
	}
	for _, recipientID := range recipients {
		updates = append(updates, firestore.Update{
			FieldPath: firestore.FieldPath{"unreadCount", recipientID},
			Value:     firestore.Increment(1),
		})
	}

	_, err := r.client.Collection(chatSessionsCollection).Doc(chatID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat session", err)
		}
		return wrapFirestoreError(err, "Failed to update chat session")
	}

	return nil
}

func (r *firestoreChatRepository) ClearUnread(ctx context.Context, chatID, userID string) error {
	_, err := r.client.Collection(chatSessionsCollection).Doc(chatID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCount", userID}, Value: 0},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat session", err)
		}
		return wrapFirestoreError(err, "Failed to update chat session")
	}

	return nil
}

// CreateMessage assigns a ULID id when absent. ULIDs from the monotonic
// default entropy are strictly increasing within a process, which keeps the
// (sentAt, id) order stable even for same-millisecond appends.
func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = ulid.Make().String()
	}
	if message.SentAt.IsZero() {
		message.SentAt = time.Now()
	}
	if message.ReadBy == nil {
		message.ReadBy = []string{message.SenderID}
	}

	_, err := r.client.Collection(chatSessionsCollection).Doc(message.ChatID).
		Collection(messagesCollection).Doc(message.ID).Create(ctx, message)
	if err != nil {
		return wrapFirestoreError(err, "Failed to create message")
	}

	return nil
}

func (r *firestoreChatRepository) ListMessagesSince(ctx context.Context, chatID, afterID string, limit int) ([]*entity.Message, error) {
	query := r.client.Collection(chatSessionsCollection).Doc(chatID).
		Collection(messagesCollection).
		OrderBy("sentAt", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)

	if afterID != "" {
		after, err := r.GetMessageByID(ctx, chatID, afterID)
		if err != nil {
			return nil, err
		}
		query = query.StartAfter(after.SentAt, afterID)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapFirestoreError(err, "Failed to iterate messages")
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}

		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreChatRepository) GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	doc, err := r.client.Collection(chatSessionsCollection).Doc(chatID).
		Collection(messagesCollection).Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, wrapFirestoreError(err, "Failed to get message")
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreChatRepository) UpdateMessageReadStatus(ctx context.Context, chatID, messageID, userID string) error {
	docRef := r.client.Collection(chatSessionsCollection).Doc(chatID).
		Collection(messagesCollection).Doc(messageID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Message", err)
			}
			return wrapFirestoreError(err, "Failed to get message")
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return errors.Internal("Failed to parse message data", err)
		}

		for _, reader := range message.ReadBy {
			if reader == userID {
				return nil // already marked as read
			}
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: "readBy", Value: firestore.ArrayUnion(userID)},
		})
	})
}
