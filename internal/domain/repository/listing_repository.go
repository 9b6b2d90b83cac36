package repository

import (
	"context"

	"campustrade/internal/domain/entity"
)

// ListingRepository is a consumed collaborator: the negotiation core only
// reads listings to resolve ownership and chat context.
type ListingRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
}
