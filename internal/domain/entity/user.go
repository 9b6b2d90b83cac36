package entity

import "time"

// User is identity data consumed by the negotiation core; authentication is
// handled upstream and callers arrive as an opaque verified id.
type User struct {
	ID         string    `json:"id" firestore:"id"`
	Email      string    `json:"email" firestore:"email"`
	Name       string    `json:"name" firestore:"name"`
	University string    `json:"university,omitempty" firestore:"university,omitempty"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
}
