package usecase

import (
	"context"
	"log"

	"campustrade/internal/domain/entity"
	"campustrade/internal/domain/repository"
	"campustrade/internal/infrastructure/ratelimit"
	ws "campustrade/internal/infrastructure/websocket"
	"campustrade/pkg/errors"
	"campustrade/pkg/logger"
)

type BidUseCase struct {
	bidRepo          repository.BidRepository
	notificationRepo repository.NotificationRepository
	listingRepo      repository.ListingRepository
	broadcaster      Broadcaster
	rateLimiter      *ratelimit.RateLimiter
}

func NewBidUseCase(
	bidRepo repository.BidRepository,
	notificationRepo repository.NotificationRepository,
	listingRepo repository.ListingRepository,
	broadcaster Broadcaster,
) *BidUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &BidUseCase{
		bidRepo:          bidRepo,
		notificationRepo: notificationRepo,
		listingRepo:      listingRepo,
		broadcaster:      broadcaster,
		rateLimiter:      rateLimiter,
	}
}

type PlaceBidInput struct {
	ListingID string
	Amount    float64
}

// PlaceBidResult reports the recorded bid and whether the owner notification
// made it out. The bid itself stands even when the notification write fails.
type PlaceBidResult struct {
	Bid                   *entity.Bid `json:"bid"`
	NotificationDelivered bool        `json:"notification_delivered"`
}

// PlaceBid records a bid against a listing and notifies the owner. The bid
// write is authoritative; the notification is best effort and its failure is
// surfaced as a warning, never as a failed bid.
func (uc *BidUseCase) PlaceBid(ctx context.Context, userID string, input PlaceBidInput) (*PlaceBidResult, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, ratelimit.ActionPlaceBid)
	if !allowed {
		log.Printf("PlaceBid Rate Limited: User %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before placing another bid")
	}

	if input.Amount <= 0 {
		return nil, errors.InvalidAmount("Bid amount must be greater than zero")
	}

	listing, err := uc.listingRepo.GetByID(ctx, input.ListingID)
	if err != nil {
		log.Printf("PlaceBid Error: Listing %s not found: %v", input.ListingID, err)
		return nil, err
	}

	if userID == listing.SellerID {
		return nil, errors.SelfBid()
	}
	if listing.PriceType != "bidding" {
		return nil, errors.BadRequest("Listing does not accept bids", nil)
	}

	bid := &entity.Bid{
		ListingID: input.ListingID,
		BidderID:  userID,
		Amount:    input.Amount,
	}

	if err := uc.bidRepo.Create(ctx, bid); err != nil {
		log.Printf("PlaceBid Error: Failed to create bid for listing %s: %v", input.ListingID, err)
		return nil, err
	}

	result := &PlaceBidResult{Bid: bid, NotificationDelivered: true}

	notification := &entity.Notification{
		RecipientID: listing.SellerID,
		Type:        entity.NotificationTypeBid,
		Data: map[string]interface{}{
			"listing_id": input.ListingID,
			"bidder_id":  userID,
			"amount":     input.Amount,
		},
	}

	if err := uc.notificationRepo.Create(ctx, notification); err != nil {
		logger.Warn("Bid %s recorded but owner notification failed: %v", bid.ID, err)
		result.NotificationDelivered = false
	} else {
		uc.broadcaster.SendToUser(listing.SellerID, ws.Envelope(ws.MessageTypeNotification, "", notification))
	}

	return result, nil
}

func (uc *BidUseCase) ListBids(ctx context.Context, listingID string, limit, offset int) ([]*entity.Bid, int64, error) {
	if _, err := uc.listingRepo.GetByID(ctx, listingID); err != nil {
		return nil, 0, err
	}

	return uc.bidRepo.ListByListingID(ctx, listingID, limit, offset)
}

func (uc *BidUseCase) ListNotifications(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	return uc.notificationRepo.ListByRecipient(ctx, userID, limit, offset)
}

func (uc *BidUseCase) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	return uc.notificationRepo.MarkRead(ctx, notificationID, userID)
}
