package entity

import "time"

const NotificationTypeBid = "bid"

// Notification is a fan-out record informing a user of an event. The payload
// is type-specific; for "bid" it carries listing_id, bidder_id and amount.
type Notification struct {
	ID          string                 `json:"id" firestore:"id"`
	RecipientID string                 `json:"recipient_id" firestore:"recipientId"`
	Type        string                 `json:"type" firestore:"type"`
	Data        map[string]interface{} `json:"data" firestore:"data"`
	Read        bool                   `json:"read" firestore:"read"`
	CreatedAt   time.Time              `json:"created_at" firestore:"createdAt"`
}
