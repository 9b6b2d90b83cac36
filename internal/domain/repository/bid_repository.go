package repository

import (
	"context"

	"campustrade/internal/domain/entity"
)

type BidRepository interface {
	Create(ctx context.Context, bid *entity.Bid) error
	ListByListingID(ctx context.Context, listingID string, limit, offset int) ([]*entity.Bid, int64, error)
}
