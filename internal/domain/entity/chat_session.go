package entity

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// ChatSession is the negotiation channel binding one buyer, one seller and one
// listing. At most one session exists per (buyer, seller, listing) triple; the
// document id is derived from the triple so the storage layer can enforce that.
type ChatSession struct {
	ID            string         `json:"id" firestore:"id"`
	BuyerID       string         `json:"buyer_id" firestore:"buyerId"`
	SellerID      string         `json:"seller_id" firestore:"sellerId"`
	ListingID     string         `json:"listing_id" firestore:"listingId"`
	Participants  []string       `json:"participants" firestore:"participants"`
	ActiveDealID  string         `json:"active_deal_id,omitempty" firestore:"activeDealId,omitempty"`
	LastMessage   string         `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt time.Time      `json:"last_message_at" firestore:"lastMessageAt"`
	UnreadCount   map[string]int `json:"unread_count" firestore:"unreadCount"`
	CreatedAt     time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updatedAt"`
}

// ChatSessionID derives the deterministic session id for a triple.
func ChatSessionID(buyerID, sellerID, listingID string) string {
	sum := sha1.Sum([]byte(buyerID + "|" + sellerID + "|" + listingID))
	return hex.EncodeToString(sum[:])
}

func (s *ChatSession) IsParticipant(userID string) bool {
	return userID == s.BuyerID || userID == s.SellerID
}

// Counterparty returns the other party of the session.
func (s *ChatSession) Counterparty(userID string) string {
	if userID == s.BuyerID {
		return s.SellerID
	}
	return s.BuyerID
}
