package entity

import "time"

const (
	DealStatusPending  = "pending"
	DealStatusAccepted = "accepted"
	DealStatusRejected = "rejected"
	DealStatusPaid     = "paid"
)

// Deal is a structured proposal tied to exactly one chat session.
// Lifecycle: pending -> accepted | rejected; accepted -> paid.
// rejected and paid are terminal.
type Deal struct {
	ID          string    `json:"id" firestore:"id"`
	ChatID      string    `json:"chat_id" firestore:"chatId"`
	BuyerID     string    `json:"buyer_id" firestore:"buyerId"`
	SellerID    string    `json:"seller_id" firestore:"sellerId"`
	ListingID   string    `json:"listing_id" firestore:"listingId"`
	Status      string    `json:"status" firestore:"status"`
	RequestedBy string    `json:"requested_by" firestore:"requestedBy"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Terminal reports whether no further transition is permitted.
func (d *Deal) Terminal() bool {
	return d.Status == DealStatusRejected || d.Status == DealStatusPaid
}
