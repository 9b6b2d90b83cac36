package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"campustrade/internal/domain/entity"
	"campustrade/pkg/errors"
)

// In-memory repositories honoring the same contracts as the Firestore
// adapters: Create conflicts on duplicate ids, Transition re-checks the
// current status, deal Create enforces the single-active-deal rule.

type fakeChatRepo struct {
	mu       sync.Mutex
	chats    map[string]*entity.ChatSession
	messages map[string][]*entity.Message

	// afterGet, when set, runs after GetByID returns its snapshot. Tests use
	// it to commit a concurrent write between a usecase's read and its
	// follow-up update.
	afterGet func(id string)
}

// cloneChat returns a detached snapshot, matching how a document store hands
// back data rather than a pointer into its own state.
func cloneChat(chat *entity.ChatSession) *entity.ChatSession {
	snapshot := *chat
	snapshot.Participants = append([]string(nil), chat.Participants...)
	snapshot.UnreadCount = make(map[string]int, len(chat.UnreadCount))
	for userID, count := range chat.UnreadCount {
		snapshot.UnreadCount[userID] = count
	}
	return &snapshot
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:    make(map[string]*entity.ChatSession),
		messages: make(map[string][]*entity.Message),
	}
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if chat.ID == "" {
		chat.ID = entity.ChatSessionID(chat.BuyerID, chat.SellerID, chat.ListingID)
	}
	if _, exists := r.chats[chat.ID]; exists {
		return errors.Conflict("chat session already exists for this buyer, seller and listing")
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

	r.chats[chat.ID] = cloneChat(chat)
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.ChatSession, error) {
	r.mu.Lock()
	chat, ok := r.chats[id]
	var snapshot *entity.ChatSession
	if ok {
		snapshot = cloneChat(chat)
	}
	hook := r.afterGet
	r.mu.Unlock()

	if !ok {
		return nil, errors.NotFound("Chat session", nil)
	}
	if hook != nil {
		hook(id)
	}
	return snapshot, nil
}

func (r *fakeChatRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.ChatSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var chats []*entity.ChatSession
	for _, chat := range r.chats {
		if chat.IsParticipant(userID) {
			chats = append(chats, cloneChat(chat))
		}
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].LastMessageAt.After(chats[j].LastMessageAt)
	})

	total := int64(len(chats))
	if offset > len(chats) {
		offset = len(chats)
	}
	chats = chats[offset:]
	if limit > 0 && limit < len(chats) {
		chats = chats[:limit]
	}
	return chats, total, nil
}

// RecordLastMessage touches only the chat-list fields and unread counters,
// like the Firestore adapter's field-path update. The active deal pointer on
// the stored session is never written here.
func (r *fakeChatRepo) RecordLastMessage(ctx context.Context, chatID string, message *entity.Message, recipients []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[chatID]
	if !ok {
		return errors.NotFound("Chat session", nil)
	}
	chat.LastMessage = message.Content
	chat.LastMessageAt = message.SentAt
	chat.UpdatedAt = message.SentAt
	for _, recipientID := range recipients {
		chat.UnreadCount[recipientID]++
	}
	return nil
}

func (r *fakeChatRepo) ClearUnread(ctx context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[chatID]
	if !ok {
		return errors.NotFound("Chat session", nil)
	}
	chat.UnreadCount[userID] = 0
	chat.UpdatedAt = time.Now()
	return nil
}

func (r *fakeChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if message.ID == "" {
		message.ID = ulid.Make().String()
	}
	if message.SentAt.IsZero() {
		message.SentAt = time.Now()
	}
	if message.ReadBy == nil {
		message.ReadBy = []string{message.SenderID}
	}

	r.messages[message.ChatID] = append(r.messages[message.ChatID], message)
	return nil
}

func (r *fakeChatRepo) ListMessagesSince(ctx context.Context, chatID, afterID string, limit int) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages := append([]*entity.Message(nil), r.messages[chatID]...)
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].SentAt.Equal(messages[j].SentAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].SentAt.Before(messages[j].SentAt)
	})

	if afterID != "" {
		idx := -1
		for i, m := range messages {
			if m.ID == afterID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, errors.NotFound("Message", nil)
		}
		messages = messages[idx+1:]
	}

	if limit > 0 && limit < len(messages) {
		messages = messages[:limit]
	}
	return messages, nil
}

func (r *fakeChatRepo) GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages[chatID] {
		if m.ID == messageID {
			return m, nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *fakeChatRepo) UpdateMessageReadStatus(ctx context.Context, chatID, messageID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages[chatID] {
		if m.ID == messageID {
			for _, reader := range m.ReadBy {
				if reader == userID {
					return nil
				}
			}
			m.ReadBy = append(m.ReadBy, userID)
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

type fakeDealRepo struct {
	mu       sync.Mutex
	deals    map[string]*entity.Deal
	chatRepo *fakeChatRepo
}

func newFakeDealRepo(chatRepo *fakeChatRepo) *fakeDealRepo {
	return &fakeDealRepo{
		deals:    make(map[string]*entity.Deal),
		chatRepo: chatRepo,
	}
}

func (r *fakeDealRepo) Create(ctx context.Context, deal *entity.Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chatRepo.mu.Lock()
	defer r.chatRepo.mu.Unlock()

	chat, ok := r.chatRepo.chats[deal.ChatID]
	if !ok {
		return errors.NotFound("Chat session", nil)
	}

	if chat.ActiveDealID != "" {
		if active, ok := r.deals[chat.ActiveDealID]; ok && !active.Terminal() {
			return errors.ActiveDealExists(deal.ChatID)
		}
	}

	if deal.ID == "" {
		deal.ID = uuid.New().String()
	}
	now := time.Now()
	deal.Status = entity.DealStatusPending
	deal.CreatedAt = now
	deal.UpdatedAt = now

	r.deals[deal.ID] = deal
	chat.ActiveDealID = deal.ID
	return nil
}

func (r *fakeDealRepo) GetByID(ctx context.Context, id string) (*entity.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deal, ok := r.deals[id]
	if !ok {
		return nil, errors.NotFound("Deal", nil)
	}
	return deal, nil
}

func (r *fakeDealRepo) GetActiveByChat(ctx context.Context, chatID string) (*entity.Deal, error) {
	chat, err := r.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.ActiveDealID == "" {
		return nil, errors.NotFound("Deal", nil)
	}
	return r.GetByID(ctx, chat.ActiveDealID)
}

func (r *fakeDealRepo) Transition(ctx context.Context, dealID, from, to string) (*entity.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deal, ok := r.deals[dealID]
	if !ok {
		return nil, errors.NotFound("Deal", nil)
	}
	if deal.Status != from {
		return nil, errors.InvalidTransition(deal.Status, to)
	}
	deal.Status = to
	deal.UpdatedAt = time.Now()
	return deal, nil
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

type fakeListingRepo struct {
	listings map[string]*entity.Listing
}

func newFakeListingRepo(listings ...*entity.Listing) *fakeListingRepo {
	r := &fakeListingRepo{listings: make(map[string]*entity.Listing)}
	for _, l := range listings {
		r.listings[l.ID] = l
	}
	return r
}

func (r *fakeListingRepo) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	listing, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	return listing, nil
}

type fakeBidRepo struct {
	mu   sync.Mutex
	bids []*entity.Bid
}

func (r *fakeBidRepo) Create(ctx context.Context, bid *entity.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bid.ID == "" {
		bid.ID = uuid.New().String()
	}
	bid.CreatedAt = time.Now()
	r.bids = append(r.bids, bid)
	return nil
}

func (r *fakeBidRepo) ListByListingID(ctx context.Context, listingID string, limit, offset int) ([]*entity.Bid, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var bids []*entity.Bid
	for _, b := range r.bids {
		if b.ListingID == listingID {
			bids = append(bids, b)
		}
	}
	return bids, int64(len(bids)), nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*entity.Notification
	failCreate    bool
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCreate {
		return errors.StorageUnavailable("Notification store unavailable", nil)
	}
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	notification.CreatedAt = time.Now()
	r.notifications = append(r.notifications, notification)
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var notifications []*entity.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			notifications = append(notifications, n)
		}
	}
	return notifications, int64(len(notifications)), nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.notifications {
		if n.ID == id {
			if n.RecipientID != recipientID {
				return errors.NotFound("Notification", nil)
			}
			n.Read = true
			return nil
		}
	}
	return errors.NotFound("Notification", nil)
}

// recorderBroadcaster captures every push for assertions.

type broadcastCall struct {
	chatID    string
	messageID string
	payload   []byte
	exclude   string
}

type directCall struct {
	userID  string
	payload []byte
}

type recorderBroadcaster struct {
	mu        sync.Mutex
	broadcast []broadcastCall
	rooms     []broadcastCall
	direct    []directCall
}

func (b *recorderBroadcaster) BroadcastMessage(chatID, messageID string, payload []byte, excludeUserID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcast = append(b.broadcast, broadcastCall{chatID: chatID, messageID: messageID, payload: payload, exclude: excludeUserID})
}

func (b *recorderBroadcaster) SendToChatRoom(chatID string, payload []byte, excludeUserID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rooms = append(b.rooms, broadcastCall{chatID: chatID, payload: payload, exclude: excludeUserID})
}

func (b *recorderBroadcaster) SendToUser(userID string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.direct = append(b.direct, directCall{userID: userID, payload: payload})
}
