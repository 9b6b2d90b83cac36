package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campustrade/internal/domain/entity"
	"campustrade/pkg/errors"
)

func newBidFixture() (*BidUseCase, *fakeNotificationRepo, *recorderBroadcaster) {
	listingRepo := newFakeListingRepo(
		&entity.Listing{ID: "listing-1", SellerID: "seller-1", Title: "Road bike", Price: 120, PriceType: "bidding"},
		&entity.Listing{ID: "listing-2", SellerID: "seller-1", Title: "Desk", Price: 30, PriceType: "fixed"},
	)
	bidRepo := &fakeBidRepo{}
	notificationRepo := &fakeNotificationRepo{}
	broadcaster := &recorderBroadcaster{}

	return NewBidUseCase(bidRepo, notificationRepo, listingRepo, broadcaster), notificationRepo, broadcaster
}

func TestPlaceBid(t *testing.T) {
	uc, notificationRepo, broadcaster := newBidFixture()

	result, err := uc.PlaceBid(context.Background(), "bidder-1", PlaceBidInput{ListingID: "listing-1", Amount: 150})
	require.NoError(t, err)

	assert.True(t, result.NotificationDelivered)
	assert.NotEmpty(t, result.Bid.ID)
	assert.Equal(t, 150.0, result.Bid.Amount)

	require.Len(t, notificationRepo.notifications, 1)
	notification := notificationRepo.notifications[0]
	assert.Equal(t, "seller-1", notification.RecipientID)
	assert.Equal(t, entity.NotificationTypeBid, notification.Type)
	assert.Equal(t, "listing-1", notification.Data["listing_id"])
	assert.Equal(t, "bidder-1", notification.Data["bidder_id"])
	assert.Equal(t, 150.0, notification.Data["amount"])

	require.Len(t, broadcaster.direct, 1)
	assert.Equal(t, "seller-1", broadcaster.direct[0].userID)
}

func TestPlaceBidInvalidAmount(t *testing.T) {
	uc, _, _ := newBidFixture()

	_, err := uc.PlaceBid(context.Background(), "bidder-1", PlaceBidInput{ListingID: "listing-1", Amount: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INVALID_AMOUNT"))

	_, err = uc.PlaceBid(context.Background(), "bidder-1", PlaceBidInput{ListingID: "listing-1", Amount: -5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INVALID_AMOUNT"))
}

func TestPlaceBidOnOwnListing(t *testing.T) {
	uc, notificationRepo, broadcaster := newBidFixture()

	_, err := uc.PlaceBid(context.Background(), "seller-1", PlaceBidInput{ListingID: "listing-1", Amount: 100})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "SELF_BID"))

	// Neither a bid nor a notification was written.
	bids, _, err := uc.ListBids(context.Background(), "listing-1", 20, 0)
	require.NoError(t, err)
	assert.Empty(t, bids)
	assert.Empty(t, notificationRepo.notifications)
	assert.Empty(t, broadcaster.direct)
}

func TestPlaceBidOnFixedPriceListing(t *testing.T) {
	uc, _, _ := newBidFixture()

	_, err := uc.PlaceBid(context.Background(), "bidder-1", PlaceBidInput{ListingID: "listing-2", Amount: 25})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestPlaceBidUnknownListing(t *testing.T) {
	uc, _, _ := newBidFixture()

	_, err := uc.PlaceBid(context.Background(), "bidder-1", PlaceBidInput{ListingID: "missing", Amount: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestPlaceBidSurvivesNotificationFailure(t *testing.T) {
	uc, notificationRepo, broadcaster := newBidFixture()
	notificationRepo.failCreate = true

	result, err := uc.PlaceBid(context.Background(), "bidder-1", PlaceBidInput{ListingID: "listing-1", Amount: 99})
	require.NoError(t, err)

	// The bid stands; only the side channel failed.
	assert.False(t, result.NotificationDelivered)
	assert.NotEmpty(t, result.Bid.ID)
	assert.Empty(t, broadcaster.direct)

	bids, total, err := uc.ListBids(context.Background(), "listing-1", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, bids, 1)
}

func TestNotificationsLifecycle(t *testing.T) {
	uc, notificationRepo, _ := newBidFixture()

	_, err := uc.PlaceBid(context.Background(), "bidder-1", PlaceBidInput{ListingID: "listing-1", Amount: 150})
	require.NoError(t, err)

	notifications, total, err := uc.ListNotifications(context.Background(), "seller-1", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, notifications, 1)
	assert.False(t, notifications[0].Read)

	// Only the recipient can mark it read.
	err = uc.MarkNotificationRead(context.Background(), "bidder-1", notifications[0].ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	err = uc.MarkNotificationRead(context.Background(), "seller-1", notifications[0].ID)
	require.NoError(t, err)
	assert.True(t, notificationRepo.notifications[0].Read)
}
