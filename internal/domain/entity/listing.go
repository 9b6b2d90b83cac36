package entity

import "time"

// Listing is catalog data consumed by the negotiation core. The core only
// reads it (owner lookup, chat context); catalog CRUD lives elsewhere.
type Listing struct {
	ID          string    `json:"id" firestore:"id"`
	SellerID    string    `json:"seller_id" firestore:"sellerId"`
	Title       string    `json:"title" firestore:"title"`
	Description string    `json:"description,omitempty" firestore:"description,omitempty"`
	Price       float64   `json:"price" firestore:"price"`
	PriceType   string    `json:"price_type" firestore:"priceType"` // "fixed", "bidding"
	ImageURL    string    `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	University  string    `json:"university,omitempty" firestore:"university,omitempty"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}
