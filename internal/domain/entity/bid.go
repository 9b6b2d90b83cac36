package entity

import "time"

// Bid is an offer amount against a listing, independent of any chat.
type Bid struct {
	ID        string    `json:"id" firestore:"id"`
	ListingID string    `json:"listing_id" firestore:"listingId"`
	BidderID  string    `json:"bidder_id" firestore:"bidderId"`
	Amount    float64   `json:"amount" firestore:"amount"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
