package repository

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campustrade/pkg/errors"
)

const (
	chatSessionsCollection  = "chat_sessions"
	messagesCollection      = "messages"
	dealsCollection         = "deals"
	bidsCollection          = "bids"
	notificationsCollection = "notifications"
	listingsCollection      = "listings"
	usersCollection         = "users"
)

// wrapFirestoreError classifies a Firestore failure: transient backend errors
// become retryable STORAGE_UNAVAILABLE, everything else is internal.
func wrapFirestoreError(err error, message string) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return errors.StorageUnavailable(message, err)
	default:
		return errors.Internal(message, err)
	}
}
