package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"campustrade/internal/domain/entity"
	"campustrade/internal/domain/repository"
)

type firestoreBidRepository struct {
	client *firestore.Client
}

func NewFirestoreBidRepository(client *firestore.Client) repository.BidRepository {
	return &firestoreBidRepository{
		client: client,
	}
}

func (r *firestoreBidRepository) Create(ctx context.Context, bid *entity.Bid) error {
	if bid.ID == "" {
		bid.ID = uuid.New().String()
	}
	bid.CreatedAt = time.Now()

	_, err := r.client.Collection(bidsCollection).Doc(bid.ID).Set(ctx, bid)
	if err != nil {
		return wrapFirestoreError(err, "Failed to create bid")
	}

	return nil
}

func (r *firestoreBidRepository) ListByListingID(ctx context.Context, listingID string, limit, offset int) ([]*entity.Bid, int64, error) {
	query := r.client.Collection(bidsCollection).
		Where("listingId", "==", listingID).
		OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, wrapFirestoreError(err, "Failed to fetch bids")
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

	var bids []*entity.Bid
	for i := start; i < end; i++ {
		var bid entity.Bid
		if err := allDocs[i].DataTo(&bid); err != nil {
			continue
		}
		bids = append(bids, &bid)
	}

	return bids, total, nil
}
