package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatSessionIDIsDeterministic(t *testing.T) {
	a := ChatSessionID("buyer-1", "seller-1", "listing-1")
	b := ChatSessionID("buyer-1", "seller-1", "listing-1")
	assert.Equal(t, a, b)
}

func TestChatSessionIDDistinguishesTriples(t *testing.T) {
	base := ChatSessionID("buyer-1", "seller-1", "listing-1")

	assert.NotEqual(t, base, ChatSessionID("buyer-2", "seller-1", "listing-1"))
	assert.NotEqual(t, base, ChatSessionID("buyer-1", "seller-2", "listing-1"))
	assert.NotEqual(t, base, ChatSessionID("buyer-1", "seller-1", "listing-2"))
	// Swapping roles is a different session.
	assert.NotEqual(t, base, ChatSessionID("seller-1", "buyer-1", "listing-1"))
}

func TestCounterparty(t *testing.T) {
	chat := &ChatSession{BuyerID: "buyer-1", SellerID: "seller-1"}

	assert.Equal(t, "seller-1", chat.Counterparty("buyer-1"))
	assert.Equal(t, "buyer-1", chat.Counterparty("seller-1"))
	assert.True(t, chat.IsParticipant("buyer-1"))
	assert.True(t, chat.IsParticipant("seller-1"))
	assert.False(t, chat.IsParticipant("intruder"))
}

func TestDealTerminal(t *testing.T) {
	assert.False(t, (&Deal{Status: DealStatusPending}).Terminal())
	assert.False(t, (&Deal{Status: DealStatusAccepted}).Terminal())
	assert.True(t, (&Deal{Status: DealStatusRejected}).Terminal())
	assert.True(t, (&Deal{Status: DealStatusPaid}).Terminal())
}

func TestMessageEmpty(t *testing.T) {
	assert.True(t, (&Message{}).Empty())
	assert.False(t, (&Message{Content: "hi"}).Empty())
	assert.False(t, (&Message{AttachmentURL: "https://example.com/a.jpg"}).Empty())
}
