package usecase

import (
	"context"
	"log"
	"time"

	"campustrade/internal/domain/entity"
	"campustrade/internal/domain/repository"
	"campustrade/internal/infrastructure/ratelimit"
	ws "campustrade/internal/infrastructure/websocket"
	"campustrade/pkg/errors"
)

// SenderSystem marks messages generated by the negotiation engine itself.
const SenderSystem = "system"

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	broadcaster Broadcaster
	rateLimiter *ratelimit.RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	broadcaster Broadcaster,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		listingRepo: listingRepo,
		broadcaster: broadcaster,
		rateLimiter: rateLimiter,
	}
}

type StartChatInput struct {
	ListingID      string
	InitialMessage string
}

type SendMessageInput struct {
	ChatID        string
	Content       string
	AttachmentURL string
}

type ChatResponse struct {
	*entity.ChatSession
	Listing   *entity.Listing `json:"listing,omitempty"`
	OtherUser *entity.User    `json:"other_user,omitempty"`
}

type MessageResponse struct {
	*entity.Message
	Sender *entity.User `json:"sender,omitempty"`
}

// StartChat resolves or creates the unique session for (buyer, seller,
// listing). The session id is derived from the triple, so two concurrent
// callers race on the same document: the loser gets a conflict from the
// repository and re-reads the winner's session. Either way the caller ends
// up with the one canonical session.
func (uc *ChatUseCase) StartChat(ctx context.Context, buyerID string, input StartChatInput) (*ChatResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(buyerID, ratelimit.ActionCreateChat)
	if !allowed {
		log.Printf("StartChat Rate Limited: User %s must wait %v", buyerID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before starting another chat")
	}

	listing, err := uc.listingRepo.GetByID(ctx, input.ListingID)
	if err != nil {
		log.Printf("StartChat Error: Listing %s not found: %v", input.ListingID, err)
		return nil, err
	}

	if buyerID == listing.SellerID {
		log.Printf("StartChat Error: User %s attempted to open a chat on their own listing %s", buyerID, input.ListingID)
		return nil, errors.InvalidParticipants("You cannot open a chat on your own listing")
	}

	seller, err := uc.userRepo.GetByID(ctx, listing.SellerID)
	if err != nil {
		log.Printf("StartChat Error: Seller %s not found: %v", listing.SellerID, err)
		return nil, err
	}

	chatID := entity.ChatSessionID(buyerID, listing.SellerID, input.ListingID)

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		if !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}

		now := time.Now()
		chat = &entity.ChatSession{
			ID:            chatID,
			BuyerID:       buyerID,
			SellerID:      listing.SellerID,
			ListingID:     input.ListingID,
			Participants:  []string{buyerID, listing.SellerID},
			UnreadCount:   make(map[string]int),
			LastMessageAt: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := uc.chatRepo.Create(ctx, chat); err != nil {
			if !errors.Is(err, "CONFLICT") {
				log.Printf("StartChat Error: Failed to create chat %s: %v", chatID, err)
				return nil, err
			}
			// Lost the race; the winner's session is authoritative.
			chat, err = uc.chatRepo.GetByID(ctx, chatID)
			if err != nil {
				return nil, err
			}
		}
	}

	if input.InitialMessage != "" {
		if _, err := uc.SendMessage(ctx, buyerID, SendMessageInput{
			ChatID:  chat.ID,
			Content: input.InitialMessage,
		}); err != nil {
			log.Printf("StartChat Error: Failed to send initial message for chat %s: %v", chat.ID, err)
			return nil, err
		}
		chat, err = uc.chatRepo.GetByID(ctx, chat.ID)
		if err != nil {
			return nil, err
		}
	}

	return &ChatResponse{
		ChatSession: chat,
		Listing:     listing,
		OtherUser:   seller,
	}, nil
}

// SendMessage appends to the chat's message log and fans the message out to
// connected participants. The caller observes its own message in the returned
// response, never via the broadcast.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID string, input SendMessageInput) (*MessageResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, ratelimit.ActionSendMessage)
	if !allowed {
		log.Printf("SendMessage Rate Limited: User %s must wait %v", userID, waitTime)
		uc.broadcaster.SendToUser(userID, ws.Envelope(ws.MessageTypeError, input.ChatID, map[string]interface{}{
			"error":     "You are sending messages too quickly. Please slow down.",
			"wait_time": waitTime.Seconds(),
		}))
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		log.Printf("SendMessage Error: Chat %s not found: %v", input.ChatID, err)
		return nil, err
	}

	if !chat.IsParticipant(userID) {
		log.Printf("SendMessage Error: User %s is not a participant in chat %s", userID, input.ChatID)
		return nil, errors.NotAParticipant(userID, input.ChatID)
	}

	message := &entity.Message{
		ChatID:        input.ChatID,
		SenderID:      userID,
		Content:       input.Content,
		AttachmentURL: input.AttachmentURL,
	}

	if message.Empty() {
		return nil, errors.EmptyMessage()
	}

	sender, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("SendMessage Error: Sender %s not found: %v", userID, err)
		return nil, err
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		log.Printf("SendMessage Error: Failed to create message for chat %s: %v", input.ChatID, err)
		return nil, err
	}

	uc.bumpLastMessage(ctx, chat, message, userID)

	response := &MessageResponse{
		Message: message,
		Sender:  sender,
	}

	uc.broadcaster.BroadcastMessage(input.ChatID, message.ID, ws.Envelope(ws.MessageTypeMessage, input.ChatID, response), userID)
	uc.broadcaster.SendToUser(chat.Counterparty(userID), ws.Envelope("chat_list_update", input.ChatID, map[string]interface{}{
		"chat_id":         input.ChatID,
		"last_message":    message.Content,
		"last_message_at": message.SentAt.Format(time.RFC3339),
		"sender_id":       userID,
	}))

	return response, nil
}

// SendSystemMessage records an engine-generated event in the chat log, such
// as a deal proposal or a status change, and pushes it to both participants.
func (uc *ChatUseCase) SendSystemMessage(ctx context.Context, chatID, content string) (*MessageResponse, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		log.Printf("SendSystemMessage Error: Chat %s not found: %v", chatID, err)
		return nil, err
	}

	message := &entity.Message{
		ChatID:   chatID,
		SenderID: SenderSystem,
		Content:  content,
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		log.Printf("SendSystemMessage Error: Failed to create system message for chat %s: %v", chatID, err)
		return nil, err
	}

	uc.bumpLastMessage(ctx, chat, message, SenderSystem)

	response := &MessageResponse{Message: message}
	uc.broadcaster.BroadcastMessage(chatID, message.ID, ws.Envelope(ws.MessageTypeMessage, chatID, response), "")

	return response, nil
}

func (uc *ChatUseCase) bumpLastMessage(ctx context.Context, chat *entity.ChatSession, message *entity.Message, senderID string) {
	var recipients []string
	for _, participantID := range chat.Participants {
		if participantID != senderID {
			recipients = append(recipients, participantID)
		}
	}

	if err := uc.chatRepo.RecordLastMessage(ctx, chat.ID, message, recipients); err != nil {
		log.Printf("SendMessage Error: Failed to update chat %s with last message: %v", chat.ID, err)
	}
}

// ListMessages returns the chat history ordered oldest to newest, resuming
// strictly after afterID when set. A page shorter than limit means the caller
// has reached the end of the log.
func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, chatID, afterID string, limit int) ([]*entity.Message, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if !chat.IsParticipant(userID) {
		return nil, errors.NotAParticipant(userID, chatID)
	}

	return uc.chatRepo.ListMessagesSince(ctx, chatID, afterID, limit)
}

func (uc *ChatUseCase) GetChatByID(ctx context.Context, userID, chatID string) (*ChatResponse, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if !chat.IsParticipant(userID) {
		return nil, errors.NotAParticipant(userID, chatID)
	}

	response := &ChatResponse{ChatSession: chat}

	if listing, err := uc.listingRepo.GetByID(ctx, chat.ListingID); err == nil {
		response.Listing = listing
	}
	if other, err := uc.userRepo.GetByID(ctx, chat.Counterparty(userID)); err == nil {
		response.OtherUser = other
	}

	return response, nil
}

func (uc *ChatUseCase) GetUserChats(ctx context.Context, userID string, limit, offset int) ([]*entity.ChatSession, int64, error) {
	return uc.chatRepo.ListByUserID(ctx, userID, limit, offset)
}

// MarkChatAsRead clears the caller's unread counter and, when a message id is
// given, records the caller on that message's read set and notifies the
// counterparty with a read receipt.
func (uc *ChatUseCase) MarkChatAsRead(ctx context.Context, userID, chatID, messageID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}

	if !chat.IsParticipant(userID) {
		return errors.NotAParticipant(userID, chatID)
	}

	if err := uc.chatRepo.ClearUnread(ctx, chatID, userID); err != nil {
		log.Printf("MarkChatAsRead Error: Failed to update chat %s: %v", chatID, err)
		return err
	}

	if messageID != "" {
		if err := uc.chatRepo.UpdateMessageReadStatus(ctx, chatID, messageID, userID); err != nil {
			log.Printf("MarkChatAsRead Error: Failed to mark message %s read: %v", messageID, err)
			return err
		}

		uc.broadcaster.SendToChatRoom(chatID, ws.Envelope("read_receipt", chatID, map[string]string{
			"chat_id":    chatID,
			"message_id": messageID,
			"reader_id":  userID,
		}), userID)
	}

	return nil
}
